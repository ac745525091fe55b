// Package timer provides in-process implementations of ports.Scheduler for
// single-node deployments, the local simulator and tests.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	"github.com/google/uuid"
)

// Callback is invoked with the job payload when the delay elapses.
type Callback func(ctx context.Context, payload map[string]string) error

// Scheduler runs jobs with time.AfterFunc. Pending jobs are lost on restart.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	run     Callback
	logger  *slog.Logger
	wg      sync.WaitGroup
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduler that calls run for every job that fires.
func New(run Callback, opts ...Option) *Scheduler {
	s := &Scheduler{
		pending: make(map[string]*time.Timer),
		run:     run,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCallback replaces the callback. It lets the scheduler be built before
// the engine that consumes it.
func (s *Scheduler) SetCallback(run Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = run
}

func (s *Scheduler) Schedule(ctx context.Context, job domain.Job) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[id] = time.AfterFunc(job.Delay, func() {
		s.fire(id, job)
	})
	return id, nil
}

func (s *Scheduler) Cancel(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[id]
	if !ok {
		return false, nil
	}
	delete(s.pending, id)
	return t.Stop(), nil
}

// Pending returns the number of jobs that have not fired or been cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending job and waits for running callbacks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) fire(id string, job domain.Job) {
	s.mu.Lock()
	if _, ok := s.pending[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	run := s.run
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if run == nil {
		return
	}
	if err := run(context.Background(), job.Payload); err != nil {
		s.logger.Warn("Scheduled job failed", logging.JobID(id), logging.Err(err))
	}
}

// Noop accepts every job without running it.
type Noop struct{}

func (Noop) Schedule(context.Context, domain.Job) (string, error) {
	return ports.SkippedJobID, nil
}

func (Noop) Cancel(context.Context, string) (bool, error) {
	return false, nil
}
