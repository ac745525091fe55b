package donorline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/donorline/internal/runtime"
	"github.com/aretw0/donorline/pkg/adapters/memory"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/aretw0/donorline/pkg/ports"
	"github.com/aretw0/donorline/pkg/session"
)

// Engine is the high-level entry point for the donorline library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager

	store       ports.SessionStore
	jobs        ports.JobIndex
	scheduler   ports.Scheduler
	gateway     ports.Gateway
	ledger      ports.Ledger
	locker      ports.DistributedLocker
	hooks       domain.Hooks
	logger      *slog.Logger
	now         func() time.Time
	callbackURL string
	sessionTTL  time.Duration
	idleAfter   time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithJobIndex sets where pending inactivity jobs are remembered.
// When unset and the store also implements ports.JobIndex, the store is used.
func WithJobIndex(j ports.JobIndex) Option {
	return func(e *Engine) {
		e.jobs = j
	}
}

// WithScheduler enables inactivity nudges through the given scheduler.
func WithScheduler(s ports.Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithGateway sets the outbound SMS gateway. Required.
func WithGateway(g ports.Gateway) Option {
	return func(e *Engine) {
		e.gateway = g
	}
}

// WithLedger sets the donation and transcript sink. Required.
func WithLedger(l ports.Ledger) Option {
	return func(e *Engine) {
		e.ledger = l
	}
}

// WithLocker serializes senders across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCallbackURL sets the URL the scheduler calls back for inactivity checks.
func WithCallbackURL(url string) Option {
	return func(e *Engine) {
		e.callbackURL = url
	}
}

// WithSessionTTL overrides the 24h session expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.sessionTTL = ttl
	}
}

// WithIdleTimeout overrides the 300s inactivity window.
func WithIdleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.idleAfter = d
	}
}

// New initializes a new donorline Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.gateway == nil {
		return nil, errors.New("a gateway is required")
	}
	if eng.ledger == nil {
		return nil, errors.New("a ledger is required")
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.jobs == nil {
		if j, ok := eng.store.(ports.JobIndex); ok {
			eng.jobs = j
		}
	}
	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if eng.sessionTTL <= 0 {
		eng.sessionTTL = ports.DefaultSessionTTL
	}

	managerOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithTTL(eng.sessionTTL),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, managerOpts...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithClock(eng.now),
		runtime.WithIdleTimeout(eng.idleAfter),
	}
	if eng.scheduler != nil && eng.jobs != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithTimeouts(eng.scheduler, eng.jobs, eng.callbackURL))
	}
	eng.runtime = runtime.NewEngine(eng.sessions, eng.gateway, eng.ledger, runtimeOpts...)

	return eng, nil
}

// HandleMessage processes one inbound SMS and returns the reply that was sent.
// A non-nil error means the session store or lock failed; the sender has been
// told to try again and the previous state is intact.
func (e *Engine) HandleMessage(ctx context.Context, from, body string) (string, error) {
	return e.runtime.HandleMessage(ctx, from, body)
}

// CheckInactivity sends the idle nudge if the sender went quiet mid-conversation.
func (e *Engine) CheckInactivity(ctx context.Context, phone string) (bool, error) {
	return e.runtime.CheckInactivity(ctx, phone)
}

// ConfirmDonor texts the donor a thank-you for a processed donation.
func (e *Engine) ConfirmDonor(ctx context.Context, name, amount, phone string) error {
	return e.runtime.ConfirmDonor(ctx, name, amount, phone)
}

// Session returns the stored session for a sender.
// Returns domain.ErrSessionNotFound if there is none.
func (e *Engine) Session(ctx context.Context, phone string) (*domain.Session, error) {
	return e.runtime.Session(ctx, phone)
}

// Reset deletes the stored session for a sender.
func (e *Engine) Reset(ctx context.Context, phone string) error {
	return e.sessions.Delete(ctx, phone)
}

// IdleTimeout returns the configured inactivity window.
func (e *Engine) IdleTimeout() time.Duration {
	return e.runtime.IdleTimeout()
}

// Collaborators lists every configured dependency that can report its health.
func (e *Engine) Collaborators() map[string]ports.Checker {
	out := make(map[string]ports.Checker)
	add := func(name string, v any) {
		if c, ok := v.(ports.Checker); ok {
			out[name] = c
		}
	}
	add("store", e.store)
	add("scheduler", e.scheduler)
	add("gateway", e.gateway)
	add("ledger", e.ledger)
	return out
}
