package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store implements ports.SessionStore and ports.JobIndex in memory.
// Expired entries are dropped lazily on read.
// Safe for concurrent use.
type Store struct {
	sessions map[string]entry[*domain.Session]
	jobs     map[string]entry[string]
	now      func() time.Time
	mu       sync.RWMutex
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides time.Now for TTL evaluation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]entry[*domain.Session]),
		jobs:     make(map[string]entry[string]),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = ports.DefaultSessionTTL
	}
	return s.now().Add(ttl)
}

// Save persists a copy of the session.
func (s *Store) Save(ctx context.Context, key string, sess *domain.Session, ttl time.Duration) error {
	// Deep copy to ensure isolation, similar to serialization
	c := sess.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = entry[*domain.Session]{value: c, expiresAt: s.expiry(ttl)}
	return nil
}

// Load retrieves a copy of the session.
func (s *Store) Load(ctx context.Context, key string) (*domain.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok || e.expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	// Copy on read so callers can't mutate store state through the pointer
	return e.value.Clone(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// List returns the keys of live sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	keys := make([]string, 0, len(s.sessions))
	for k, e := range s.sessions {
		if !e.expired(now) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// GetJob returns the pending job recorded for key.
func (s *Store) GetJob(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	e, ok := s.jobs[key]
	s.mu.RUnlock()

	if !ok || e.expired(s.now()) {
		return "", domain.ErrJobNotFound
	}
	return e.value, nil
}

// SetJob records the pending job for key.
func (s *Store) SetJob(ctx context.Context, key, jobID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[key] = entry[string]{value: jobID, expiresAt: s.expiry(ttl)}
	return nil
}

// DeleteJob forgets the pending job for key.
func (s *Store) DeleteJob(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, key)
	return nil
}
