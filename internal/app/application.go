// Package app wires configuration, storage, cache, queue and the HTTP
// surface into a runnable application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fizzlabs/fizzbuzz-service/internal/cache"
	"github.com/fizzlabs/fizzbuzz-service/internal/config"
	"github.com/fizzlabs/fizzbuzz-service/internal/health"
	"github.com/fizzlabs/fizzbuzz-service/internal/httpserver"
	"github.com/fizzlabs/fizzbuzz-service/internal/queue"
	"github.com/fizzlabs/fizzbuzz-service/internal/reconcile"
	"github.com/fizzlabs/fizzbuzz-service/internal/sequence"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats"
	"github.com/fizzlabs/fizzbuzz-service/internal/stats/postgres"
	"github.com/fizzlabs/fizzbuzz-service/internal/tracker"
	"github.com/fizzlabs/fizzbuzz-service/pkg/logger"
)

// Options selects which components of the application run in this
// process. The default binary enables everything; the worker and
// reconcile binaries pick what they need.
type Options struct {
	EnableHTTP       bool
	EnableConsumer   bool
	EnableReconciler bool
}

// Application wires core dependencies and manages their lifecycle.
type Application struct {
	cfg   *config.Config
	log   *logger.Logger
	opts  Options
	db    *sqlx.DB
	redis *redis.Client

	store      stats.Store
	httpServer *httpserver.Server
	consumer   *tracker.Consumer
	runner     *reconcile.Runner
	reconciler *reconcile.Reconciler
}

// New constructs an application from the environment-backed config.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig constructs an application from an explicit config.
func NewWithConfig(cfg *config.Config, opts Options) (*Application, error) {
	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	store := postgres.New(db)
	trackQueue := queue.NewRedisQueue(rdb, cfg.Queue.Key, cfg.Queue.PopTimeout, cfg.Queue.PushTimeout)

	a := &Application{
		cfg:   cfg,
		log:   log,
		opts:  opts,
		db:    db,
		redis: rdb,
		store: store,
	}

	if opts.EnableHTTP {
		seqCache := cache.NewRedisCache(rdb, cfg.Cache.TTL, cfg.Cache.OpTimeout, log.WithField("component", "cache"))
		seqService := sequence.New(seqCache, trackQueue, log.WithField("component", "sequence"))

		checker := health.New(
			health.PingerFunc(db.PingContext),
			health.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
			cfg.App.Version,
			cfg.App.Environment,
			log.WithField("component", "health"),
		)

		handlers := httpserver.NewHandlers(seqService, store, checker, log.WithField("component", "http"))
		router := httpserver.NewRouter(cfg.Server, handlers, log.WithField("component", "http"))
		a.httpServer = httpserver.NewServer(cfg.Server, router, log.WithField("component", "http"))
	}

	if opts.EnableConsumer {
		a.consumer = tracker.New(store, trackQueue, log.WithField("component", "tracker"))
	}

	if opts.EnableReconciler {
		a.reconciler = reconcile.New(store, cfg.Reconcile.Staleness, log.WithField("component", "reconcile"))
		lock := reconcile.NewRedisLock(rdb, cfg.Reconcile.LockKey, cfg.Reconcile.LockTTL)
		a.runner = reconcile.NewRunner(a.reconciler, lock, cfg.Reconcile.Schedule, log.WithField("component", "reconcile"))
	}

	return a, nil
}

// Config exposes the loaded configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger exposes the application logger.
func (a *Application) Logger() *logger.Logger { return a.log }

// ReconcileOnce runs a single unscheduled sweep. Used by the one-shot
// reconcile binary.
func (a *Application) ReconcileOnce(ctx context.Context) error {
	if a.reconciler == nil {
		return fmt.Errorf("reconciler not enabled")
	}
	return a.reconciler.ReconcilePendingRequests(ctx)
}

// Run starts the enabled components and blocks until the context is
// cancelled or a component fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.httpServer != nil {
		go func() {
			if err := a.httpServer.Start(); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	if a.consumer != nil {
		go a.consumer.Run(ctx)
	}

	if a.runner != nil {
		if err := a.runner.Start(ctx); err != nil {
			return fmt.Errorf("reconcile runner: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the enabled components and closes connections.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.runner != nil {
		a.runner.Stop()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("error closing redis connection")
	}
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("error closing database connection")
	}
	return nil
}

func openDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
