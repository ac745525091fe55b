package ports

import (
	"context"

	"github.com/aretw0/donorline/pkg/domain"
)

// Scheduler delivers a delayed, fire-once callback.
type Scheduler interface {
	// Schedule registers the job and returns its identifier.
	Schedule(ctx context.Context, job domain.Job) (string, error)

	// Cancel removes a pending job. It reports false when the job was
	// unknown or had already fired.
	Cancel(ctx context.Context, jobID string) (bool, error)
}

// SkippedJobID is returned by schedulers that deliberately did not schedule
// anything (development mode, local callback URLs). It is never cancelled.
const SkippedJobID = "dev-skip"
