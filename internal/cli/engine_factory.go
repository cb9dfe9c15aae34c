package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/adapters/file"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options are the global CLI flags.
type Options struct {
	ConfigPath string
	// Dir overrides store.dir: documents live in Dir/.canopy/documents.
	Dir      string
	LogLevel string
	Debug    bool
}

// App bundles an engine with the resources built for it.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *canopy.Engine
	Registry *prometheus.Registry
	closers  []func() error
}

// Close releases the store connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewApp loads configuration and builds the engine with standard CLI conventions.
func NewApp(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Dir != "" {
		cfg.Store.Dir = filepath.Join(opts.Dir, ".canopy", "documents")
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	return newAppFromConfig(cfg)
}

func newAppFromConfig(cfg *config.Config) (*App, error) {
	logger, err := createLogger(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(app.Registry)

	// 1. Store & Locker
	store, locker, err := app.buildStore()
	if err != nil {
		return nil, err
	}

	// 2. Middleware: metrics see the caller's view, encryption sits next to the backend.
	mws := []middleware.Middleware{metrics.InstrumentStore()}
	if len(cfg.Redaction.Patterns) > 0 {
		redact, err := middleware.NewRedactionMiddleware(cfg.Redaction.Patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	active, fallbacks, err := cfg.EncryptionKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}

	// 3. Engine
	engineOpts := []canopy.Option{
		canopy.WithStore(middleware.Chain(store, mws...)),
		canopy.WithLogger(logger),
		canopy.WithLifecycleHooks(metrics.Hooks()),
		canopy.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}
	if locker != nil {
		engineOpts = append(engineOpts, canopy.WithLocker(locker, cfg.Store.Redis.LockTTL))
	}
	app.Engine = canopy.New(engineOpts...)

	logger.Debug("Engine ready", "backend", cfg.Store.Backend, "encrypted", active != nil)
	return app, nil
}

func (a *App) buildStore() (ports.DocumentStore, ports.DistributedLocker, error) {
	cfg := a.Config.Store
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil, nil
	case config.BackendFile:
		return file.New(cfg.Dir), nil, nil
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		prefix := redis.DefaultPrefix
		if cfg.Redis.Prefix != "" {
			prefix = cfg.Redis.Prefix
			opts = append(opts, redis.WithPrefix(prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		a.closers = append(a.closers, store.Close)
		return store, redis.NewLocker(store.Client(), prefix), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}
