package ports

import (
	"context"
	"time"

	"github.com/aretw0/donorline/pkg/domain"
)

// DefaultSessionTTL is how long an abandoned session survives in the store.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore persists per-sender conversation state.
type SessionStore interface {
	// Load retrieves the session for a sender.
	// Returns domain.ErrSessionNotFound if no session exists.
	Load(ctx context.Context, key string) (*domain.Session, error)

	// Save persists the session. A zero ttl means DefaultSessionTTL.
	Save(ctx context.Context, key string, session *domain.Session, ttl time.Duration) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, key string) error
}

// JobIndex remembers the pending inactivity job for each sender so that it
// can be cancelled when the next message arrives.
type JobIndex interface {
	// GetJob returns domain.ErrJobNotFound when no job is recorded.
	GetJob(ctx context.Context, key string) (string, error)
	SetJob(ctx context.Context, key, jobID string, ttl time.Duration) error
	DeleteJob(ctx context.Context, key string) error
}
