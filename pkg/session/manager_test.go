package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	"github.com/aretw0/donorline/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, key string, sess *domain.Session, ttl time.Duration) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[key] = sess.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, key string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[key]; ok {
		return sess.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func TestManager_SerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	key := "+12125551234"

	require.NoError(t, manager.Save(ctx, key, domain.NewSession(time.Now())))

	var wg sync.WaitGroup
	const writers = 20
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, key, func(ctx context.Context) error {
				s, err := manager.Store().Load(ctx, key)
				if err != nil {
					return err
				}
				// Each writer appends one character; a lost update would shorten the result.
				s.Set(domain.FieldNote, s.Get(domain.FieldNote)+"x")
				return manager.Store().Save(ctx, key, s, manager.TTL())
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, key)
	require.NoError(t, err)
	assert.Len(t, s.Get(domain.FieldNote), writers)
}

type fakeLocker struct {
	mu       sync.Mutex
	locked   int
	unlocked int
	fail     error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.mu.Lock()
	f.locked++
	f.mu.Unlock()
	return func(ctx context.Context) error {
		f.mu.Lock()
		f.unlocked++
		f.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &fakeLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker))

	err := manager.WithLock(context.Background(), "k", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := &fakeLocker{fail: errors.New("redis down")}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker))

	called := false
	err := manager.WithLock(context.Background(), "k", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrLockAcquire)
	assert.False(t, called)
}

func TestManager_TTL(t *testing.T) {
	assert.Equal(t, ports.DefaultSessionTTL, session.NewManager(&SlowStore{}).TTL())
	assert.Equal(t, time.Hour, session.NewManager(&SlowStore{}, session.WithTTL(time.Hour)).TTL())
}
