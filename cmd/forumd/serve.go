package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"

	"github.com/sirpyerre/discussion-api/internal/api"
	"github.com/sirpyerre/discussion-api/internal/api/handler"
	"github.com/sirpyerre/discussion-api/internal/api/metrics"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/core/service"
	"github.com/sirpyerre/discussion-api/internal/infrastructure/config"
	mongodb "github.com/sirpyerre/discussion-api/internal/infrastructure/db/mongo"
	redisdb "github.com/sirpyerre/discussion-api/internal/infrastructure/db/redis"
	"github.com/sirpyerre/discussion-api/internal/infrastructure/memory"
	"github.com/sirpyerre/discussion-api/internal/infrastructure/security"
	"github.com/sirpyerre/discussion-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.WithoutCancel(ctx)) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	// --- Cache and event bus ---
	var cache ports.Cache
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		cache = redisdb.NewCache(rdb)
	default:
		mc, err := memory.NewCache(cfg.Cache.MaxCost)
		if err != nil {
			return err
		}
		defer mc.Close()
		cache = mc
	}

	var (
		bus      ports.EventBus
		drainBus = func() {}
	)
	switch cfg.Events.Backend {
	case config.BackendRedis:
		bus = redisdb.NewBus(rdb, cfg.Events.Buffer, logger.Component("bus"))
	default:
		mb := memory.NewBus(cfg.Events.Buffer, logger.Component("bus"), memory.WithObserver(metrics.BusObserver{}))
		bus, drainBus = mb, mb.Close
	}

	cache = metrics.InstrumentCache(cache)
	bus = metrics.InstrumentBus(bus)

	// --- Core ---
	users := mongodb.NewUserRepository(db)
	posts := mongodb.NewPostRepository(db)
	comments := mongodb.NewCommentRepository(db)

	tokens := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	rt := execution.NewRuntime(execution.RuntimeConfig{
		Users:    users,
		Tokens:   tokens,
		Cache:    cache,
		CacheTTL: cfg.Cache.TTL,
		Bus:      bus,
		Loader: execution.LoaderConfig{
			Wait:     cfg.Loader.Wait,
			MaxBatch: cfg.Loader.MaxBatch,
			OnBatch:  metrics.ObserveBatch,
		},
		Logger: logger.Component("execution"),
	})

	ops := service.NewOperations(service.Services{
		Auth:          service.NewAuthService(users, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, logger.Component("auth")),
		Users:         service.NewUserService(users, posts, comments),
		Posts:         service.NewPostService(posts, comments, logger.Component("posts")),
		Comments:      service.NewCommentService(posts, comments, logger.Component("comments")),
		Subscriptions: service.NewSubscriptionService(),
	})

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Ops:     ops,
		Runtime: rt,
		Log:     log,
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			"cache":     cache.Ping,
			"event_bus": bus.Ping,
		},
		RateRPS:   cfg.Rate.RPS,
		RateBurst: cfg.Rate.Burst,
		KeepAlive: cfg.Events.KeepAlive,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("cache", cfg.Cache.Backend).
			Str("event_bus", cfg.Events.Backend).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		// Ends every open stream so Shutdown is not held by SSE connections.
		drainBus()

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown timed out")
			return e.Close()
		}
		return nil
	})

	return g.Wait()
}
