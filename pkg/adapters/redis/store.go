package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const (
	// DefaultSessionPrefix namespaces session keys.
	DefaultSessionPrefix = "session:"
	// DefaultJobPrefix namespaces the pending-job index.
	DefaultJobPrefix = "qjob:"
)

// Store implements ports.SessionStore and ports.JobIndex using Redis.
// Sessions are stored as JSON strings with a TTL.
type Store struct {
	client    *backend.Client
	prefix    string
	jobPrefix string
	ttl       time.Duration
}

type Option func(*Store)

// WithTTL sets the default expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithJobPrefix sets the key prefix for the job index.
func WithJobPrefix(prefix string) Option {
	return func(s *Store) {
		s.jobPrefix = prefix
	}
}

// New creates a Redis store from a connection URL (redis:// or rediss://).
func New(url string, opts ...Option) (*Store, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(o), opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:    client,
		prefix:    DefaultSessionPrefix,
		jobPrefix: DefaultJobPrefix,
		ttl:       ports.DefaultSessionTTL,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection pool.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) jobKey(k string) string {
	return s.jobPrefix + k
}

// Save persists the session to Redis.
func (s *Store) Save(ctx context.Context, key string, sess *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the session from Redis.
func (s *Store) Load(ctx context.Context, key string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Data == nil {
		sess.Data = make(map[domain.Field]string)
	}
	return &sess, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// GetJob returns the pending job ID recorded for key.
func (s *Store) GetJob(ctx context.Context, key string) (string, error) {
	id, err := s.client.Get(ctx, s.jobKey(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrJobNotFound
		}
		return "", fmt.Errorf("failed to get job from redis: %w", err)
	}
	return id, nil
}

// SetJob records the pending job ID for key.
func (s *Store) SetJob(ctx context.Context, key, jobID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.Set(ctx, s.jobKey(key), jobID, ttl).Err()
}

// DeleteJob forgets the pending job for key.
func (s *Store) DeleteJob(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.jobKey(key)).Err()
}

// Check pings the server.
func (s *Store) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
