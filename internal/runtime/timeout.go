package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
)

// cancelTimeout drops the sender's pending inactivity job, if any.
func (e *Engine) cancelTimeout(ctx context.Context, from string) {
	if e.scheduler == nil || e.jobs == nil {
		return
	}
	id, err := e.jobs.GetJob(ctx, from)
	if errors.Is(err, domain.ErrJobNotFound) {
		return
	}
	if err != nil {
		e.collaboratorError(ctx, from, "job_index", err)
		return
	}
	if id != ports.SkippedJobID {
		if _, err := e.scheduler.Cancel(ctx, id); err != nil {
			e.collaboratorError(ctx, from, "scheduler", err)
		}
	}
	if err := e.jobs.DeleteJob(ctx, from); err != nil {
		e.collaboratorError(ctx, from, "job_index", err)
	}
}

// scheduleTimeout arranges for CheckInactivity to run after the idle window.
func (e *Engine) scheduleTimeout(ctx context.Context, from string) {
	if e.scheduler == nil || e.jobs == nil {
		return
	}
	id, err := e.scheduler.Schedule(ctx, domain.Job{
		CallbackURL: e.callbackURL,
		Delay:       e.idleAfter,
		Payload:     map[string]string{"phone": from},
	})
	if err != nil {
		e.collaboratorError(ctx, from, "scheduler", err)
		return
	}
	if id == "" || id == ports.SkippedJobID {
		return
	}
	if err := e.jobs.SetJob(ctx, from, id, e.sessions.TTL()); err != nil {
		e.collaboratorError(ctx, from, "job_index", err)
		return
	}
	e.logger.Debug("Inactivity check scheduled", logging.Phone(from), logging.JobID(id))
}
