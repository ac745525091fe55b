package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	"github.com/aretw0/donorline/pkg/session"
)

// DefaultIdleTimeout is how long a sender may stay silent before the inactivity nudge.
const DefaultIdleTimeout = 300 * time.Second

// Engine is the conversation state machine runner.
// It is the only component that talks to collaborators; handlers are pure.
type Engine struct {
	sessions  *session.Manager
	gateway   ports.Gateway
	ledger    ports.Ledger
	jobs      ports.JobIndex
	scheduler ports.Scheduler

	hooks       domain.Hooks
	logger      *slog.Logger
	now         func() time.Time
	recordID    func(time.Time) string
	callbackURL string
	idleAfter   time.Duration
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRecordIDs overrides the donation record ID generator.
func WithRecordIDs(gen func(time.Time) string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.recordID = gen
		}
	}
}

// WithTimeouts enables inactivity scheduling. callbackURL receives the
// scheduled {"phone": ...} payload after idleAfter.
func WithTimeouts(scheduler ports.Scheduler, jobs ports.JobIndex, callbackURL string) EngineOption {
	return func(e *Engine) {
		e.scheduler = scheduler
		e.jobs = jobs
		e.callbackURL = callbackURL
	}
}

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.idleAfter = d
		}
	}
}

// NewEngine creates a new engine with dependencies.
func NewEngine(sessions *session.Manager, gateway ports.Gateway, ledger ports.Ledger, opts ...EngineOption) *Engine {
	e := &Engine{
		sessions:  sessions,
		gateway:   gateway,
		ledger:    ledger,
		logger:    logging.NewNop(),
		now:       time.Now,
		recordID:  domain.NewRecordID,
		idleAfter: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IdleTimeout returns the configured inactivity window.
func (e *Engine) IdleTimeout() time.Duration {
	return e.idleAfter
}

// HandleMessage processes one inbound message and returns the reply sent.
//
// Inside the sender's critical section it loads (or creates) the session,
// cancels the pending inactivity job, dispatches the input, writes the
// donation record, persists the new state, sends the reply and schedules
// the next inactivity job. Only session store and lock failures abort the
// message; every other collaborator failure is logged and counted.
func (e *Engine) HandleMessage(ctx context.Context, from, text string) (string, error) {
	start := e.now()
	var reply string

	err := e.sessions.WithLock(ctx, from, func(ctx context.Context) error {
		store := e.sessions.Store()

		prev, err := store.Load(ctx, from)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			prev = domain.NewSession(start)
		case err != nil:
			return fmt.Errorf("failed to load session: %w", err)
		}

		e.cancelTimeout(ctx, from)
		e.audit(ctx, from, domain.Inbound, &prev.Step, text)

		cur := prev.Clone()
		cur.LastMessageAt = start
		cur.TimedOut = false

		out := dispatch(cur.Clone(), text, turn{now: start, recordID: e.recordID})

		if out.Record != nil {
			if err := e.ledger.AppendDonation(ctx, *out.Record); err != nil {
				e.collaboratorError(ctx, from, "ledger", err)
				out = Outcome{Session: cur, Reply: domain.MsgSaveFailed, Command: out.Command}
			} else {
				e.logger.Info("Donation recorded", logging.Phone(from), logging.RecordID(out.Record.ID))
				e.emitDonation(ctx, from, out.Record.ID)
			}
		}

		if out.Session == nil {
			if err := store.Delete(ctx, from); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		} else if err := store.Save(ctx, from, out.Session, e.sessions.TTL()); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		e.emitCommand(ctx, from, out.Command)
		next := domain.StepGreeting
		if out.Session != nil {
			next = out.Session.Step
		}
		if next != prev.Step {
			e.emitTransition(ctx, from, prev.Step, next)
		}

		reply = out.Reply
		e.send(ctx, from, reply, out.Session)

		if out.Session != nil && !out.Session.WaitingForNewEntry {
			e.scheduleTimeout(ctx, from)
		}

		e.logger.Debug("Message processed",
			logging.Phone(from),
			slog.String("from_step", prev.Step.String()),
			slog.String("to_step", next.String()),
			logging.Command(out.Command.String()),
		)
		return nil
	})

	e.emitMessage(ctx, from, domain.Inbound, e.now().Sub(start))

	if err != nil {
		e.logger.Error("Failed to process message", logging.Phone(from), logging.Err(err))
		if _, sendErr := e.gateway.Send(ctx, from, domain.MsgError); sendErr != nil {
			e.collaboratorError(ctx, from, "gateway", sendErr)
		}
		return "", err
	}
	return reply, nil
}

// Session returns the stored session for a sender without modifying it.
func (e *Engine) Session(ctx context.Context, from string) (*domain.Session, error) {
	return e.sessions.Load(ctx, from)
}

// send delivers the reply and records it in the transcript. Failures are non-fatal.
func (e *Engine) send(ctx context.Context, to, text string, s *domain.Session) {
	if text == "" {
		return
	}
	if _, err := e.gateway.Send(ctx, to, text); err != nil {
		e.collaboratorError(ctx, to, "gateway", err)
	} else {
		e.emitMessage(ctx, to, domain.Outbound, 0)
	}

	var step *domain.Step
	if s != nil {
		st := s.Step
		step = &st
	}
	e.audit(ctx, to, domain.Outbound, step, text)
}

func (e *Engine) audit(ctx context.Context, identity string, dir domain.Direction, step *domain.Step, text string) {
	entry := domain.MessageLog{
		At:        e.now(),
		Identity:  identity,
		Direction: dir,
		Step:      step,
		Text:      text,
	}
	if err := e.ledger.AppendMessage(ctx, entry); err != nil {
		e.collaboratorError(ctx, identity, "audit", err)
	}
}

func (e *Engine) collaboratorError(ctx context.Context, identity, collaborator string, err error) {
	e.logger.Warn("Collaborator call failed",
		logging.Phone(identity),
		logging.Collaborator(collaborator),
		logging.Err(err),
	)
	if e.hooks.OnCollaboratorError != nil {
		e.hooks.OnCollaboratorError(ctx, &domain.CollaboratorEvent{
			EventBase:    e.event(domain.EventCollaboratorError, identity),
			Collaborator: collaborator,
			Err:          err,
		})
	}
}
