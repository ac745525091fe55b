package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/domain"
)

// CheckInactivity sends the idle nudge to a sender who went quiet mid-conversation.
// It is idempotent: the nudge is sent at most once per silence, and the session
// is never deleted or advanced. It reports whether a nudge was sent.
func (e *Engine) CheckInactivity(ctx context.Context, phone string) (bool, error) {
	var nudged bool

	err := e.sessions.WithLock(ctx, phone, func(ctx context.Context) error {
		store := e.sessions.Store()

		s, err := store.Load(ctx, phone)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if !e.idle(s) {
			return nil
		}

		s.TimedOut = true
		if err := store.Save(ctx, phone, s, e.sessions.TTL()); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		if e.jobs != nil {
			if err := e.jobs.DeleteJob(ctx, phone); err != nil {
				e.collaboratorError(ctx, phone, "job_index", err)
			}
		}

		e.send(ctx, phone, domain.MsgTimeout, s)
		e.emitNudge(ctx, phone)
		e.logger.Info("Inactivity nudge sent", logging.Phone(phone), logging.Step(s.Step))
		nudged = true
		return nil
	})
	if err != nil {
		e.logger.Error("Inactivity check failed", logging.Phone(phone), logging.Err(err))
		return false, err
	}
	return nudged, nil
}

// idle reports whether the session is mid-conversation, silent for longer
// than the idle window, and not yet nudged.
func (e *Engine) idle(s *domain.Session) bool {
	if s.Step == domain.StepGreeting || s.WaitingForNewEntry || s.TimedOut {
		return false
	}
	return e.now().Sub(s.LastMessageAt) > e.idleAfter
}
