package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/donorline"
	"github.com/aretw0/donorline/internal/config"
	"github.com/aretw0/donorline/pkg/adapters/dynamodb"
	"github.com/aretw0/donorline/pkg/adapters/memory"
	"github.com/aretw0/donorline/pkg/adapters/qstash"
	"github.com/aretw0/donorline/pkg/adapters/redis"
	"github.com/aretw0/donorline/pkg/adapters/sheets"
	"github.com/aretw0/donorline/pkg/adapters/sms"
	"github.com/aretw0/donorline/pkg/adapters/timer"
	"github.com/aretw0/donorline/pkg/observability"
	"github.com/aretw0/donorline/pkg/persistence/middleware"
	"github.com/aretw0/donorline/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// App is a fully wired engine plus the resources that outlive a single call.
type App struct {
	Engine   *donorline.Engine
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// Timer is set when inactivity checks run in-process.
	Timer *timer.Scheduler
	// Ledger is set when donations are kept in memory.
	Ledger *memory.Ledger

	checks  map[string]ports.Checker
	closers []func() error
}

// BuildOptions adjusts how NewApp wires the configured adapters.
type BuildOptions struct {
	Logger *slog.Logger
	// Console receives outbound SMS for the console platform.
	Console io.Writer
	// ForceConsole ignores the configured SMS platform.
	ForceConsole bool
}

// NewApp initializes a donorline engine from configuration.
func NewApp(ctx context.Context, cfg config.Config, opts BuildOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = createLogger(cfg)
	}
	app := &App{
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
		checks:   make(map[string]ports.Checker),
	}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	engineOpts := []donorline.Option{
		donorline.WithLogger(logger),
		donorline.WithSessionTTL(cfg.Session.TTL),
		donorline.WithIdleTimeout(cfg.Session.IdleTimeout),
		donorline.WithCallbackURL(cfg.CallbackURL()),
	}

	// 1. Sessions
	var store ports.SessionStore
	switch cfg.Store.Driver {
	case config.DriverRedis:
		rs, err := redis.New(cfg.Store.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error connecting to redis: %w", err)
		}
		app.closers = append(app.closers, rs.Close)
		app.checks["store"] = rs
		store = rs
		engineOpts = append(engineOpts,
			donorline.WithJobIndex(rs),
			donorline.WithLocker(redis.NewLocker(rs.Client(), "")),
		)
	default:
		ms := memory.NewStore()
		store = ms
		engineOpts = append(engineOpts, donorline.WithJobIndex(ms))
	}
	if cfg.Store.EncryptionKey != "" {
		encrypt, err := encryptionMiddleware(cfg.Store.EncryptionKey)
		if err != nil {
			return nil, err
		}
		store = encrypt(store)
	}
	engineOpts = append(engineOpts, donorline.WithStore(store))

	// 2. Inactivity scheduler
	switch cfg.Scheduler.Driver {
	case config.DriverQStash:
		qopts := []qstash.Option{
			qstash.WithDevelopment(cfg.Development()),
			qstash.WithLogger(logger),
		}
		if cfg.Scheduler.QStashURL != "" {
			qopts = append(qopts, qstash.WithBaseURL(cfg.Scheduler.QStashURL))
		}
		q, err := qstash.New(cfg.Scheduler.QStashToken, qopts...)
		if err != nil {
			return nil, fmt.Errorf("error configuring qstash: %w", err)
		}
		engineOpts = append(engineOpts, donorline.WithScheduler(q))
	case config.DriverTimer:
		app.Timer = timer.New(nil, timer.WithLogger(logger))
		app.closers = append(app.closers, func() error {
			app.Timer.Stop()
			return nil
		})
		engineOpts = append(engineOpts, donorline.WithScheduler(app.Timer))
	default:
		engineOpts = append(engineOpts, donorline.WithScheduler(timer.Noop{}))
	}

	// 3. Outbound SMS
	platform := cfg.SMS.Platform
	smsCfg := cfg.SMS.Config
	if opts.ForceConsole {
		platform = sms.PlatformConsole
	}
	smsCfg.Console = opts.Console
	gateway, err := sms.New(platform, smsCfg)
	if err != nil {
		return nil, fmt.Errorf("error configuring sms gateway: %w", err)
	}
	engineOpts = append(engineOpts, donorline.WithGateway(gateway))

	// 4. Ledger
	var ledger ports.Ledger
	switch cfg.Ledger.Driver {
	case config.DriverSheets:
		l, err := sheets.New(ctx, cfg.Ledger.Sheets, sheets.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("error configuring google sheets: %w", err)
		}
		ledger = l
	case config.DriverDynamoDB:
		d := cfg.Ledger.DynamoDB
		l, err := dynamodb.NewFromConfig(ctx, d.Region, d.DonationsTable, d.MessagesTable)
		if err != nil {
			return nil, fmt.Errorf("error configuring dynamodb: %w", err)
		}
		ledger = l
	default:
		app.Ledger = memory.NewLedger()
		ledger = app.Ledger
	}
	if cfg.Ledger.RedactTranscripts {
		ledger = middleware.NewRedactionMiddleware()(ledger)
	}
	engineOpts = append(engineOpts, donorline.WithLedger(ledger))

	// 5. Hooks
	metrics := observability.NewMetrics(app.Registry)
	engineOpts = append(engineOpts, donorline.WithLifecycleHooks(
		observability.Combine(metrics.Hooks(), observability.LogHooks(logger)),
	))

	eng, err := donorline.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = eng

	if app.Timer != nil {
		app.Timer.SetCallback(func(ctx context.Context, payload map[string]string) error {
			_, err := eng.CheckInactivity(ctx, payload["phone"])
			return err
		})
	}

	ok = true
	return app, nil
}

// encryptionMiddleware parses a comma separated key list. The first key
// seals new sessions; the rest are accepted when opening old ones.
func encryptionMiddleware(keys string) (middleware.StoreMiddleware, error) {
	var cfg middleware.EncryptionConfig
	for i, raw := range strings.Split(keys, ",") {
		key, err := middleware.ParseKey(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_ENCRYPTION_KEY: %w", err)
		}
		if i == 0 {
			cfg.ActiveKey = key
		} else {
			cfg.FallbackKeys = append(cfg.FallbackKeys, key)
		}
	}
	return middleware.NewEncryptionMiddleware(cfg)
}

// Checks returns every collaborator that can report health.
func (a *App) Checks() map[string]ports.Checker {
	out := a.Engine.Collaborators()
	for name, c := range a.checks {
		out[name] = c
	}
	return out
}

// Close releases connections and stops pending timers.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
