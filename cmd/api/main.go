// Package main is the entry point of the Film Hub API.
//
// Layers:
//   - Domain: relations, popularity, friendship graph, review feedback
//   - Application: commands and queries
//   - Infrastructure: Postgres or in-memory store, Redis rate limiter
//   - Interface: REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/filmhub/filmhub-core/config"
	"github.com/filmhub/filmhub-core/internal/application/command"
	"github.com/filmhub/filmhub-core/internal/application/query"
	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/feedback"
	"github.com/filmhub/filmhub-core/internal/domain/popularity"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/social"
	"github.com/filmhub/filmhub-core/internal/infrastructure/persistence/memory"
	"github.com/filmhub/filmhub-core/internal/infrastructure/persistence/postgres"
	"github.com/filmhub/filmhub-core/internal/infrastructure/persistence/redis"
	httpserver "github.com/filmhub/filmhub-core/internal/interface/http"
	"github.com/filmhub/filmhub-core/internal/interface/http/handlers"
	"github.com/filmhub/filmhub-core/pkg/circuitbreaker"
)

// backend is a relation store that also serves the catalog.
type backend interface {
	relation.Store
	Catalog() catalog.Repositories
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting Film Hub API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"store", cfg.Store.Driver,
	)

	health := handlers.NewHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Store
	// ─────────────────────────────────────────────────────────────────────────
	var store backend
	switch cfg.Store.Driver {
	case config.StorePostgres:
		log.Info("connecting to database...")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()

		if err := postgres.EnsureSchema(ctx, conn); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
		log.Info("database connection established")

		health.AddCheck("postgres", conn.HealthCheck)
		store = postgres.NewStore(conn)
	default:
		log.Warn("using in-memory store, data is lost on exit")
		store = memory.NewStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Rate limiting (Redis when configured, otherwise per process)
	// ─────────────────────────────────────────────────────────────────────────
	var limiter httpserver.Limiter
	if cfg.HTTP.RateLimitPerMinute > 0 {
		if cfg.Redis.Enabled() {
			log.Info("connecting to Redis...")
			redisCfg := redis.DefaultConfig()
			redisCfg.URL = cfg.Redis.URL

			client, err := redis.NewClient(ctx, redisCfg)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer client.Close()

			health.AddCheck("redis", handlers.PingCheck(client))
			rl := redis.NewRateLimiter(client, "http", cfg.HTTP.RateLimitPerMinute, time.Minute)
			breaker := circuitbreaker.RedisBreaker(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			})
			limiter = httpserver.LimiterFunc(func(ctx context.Context, key string) (bool, error) {
				var d redis.Decision
				err := breaker.Execute(ctx, func(ctx context.Context) error {
					var err error
					d, err = rl.Allow(ctx, key)
					return err
				})
				return d.Allowed, err
			})
		} else {
			limiter = httpserver.NewMemoryLimiter(cfg.HTTP.RateLimitPerMinute, time.Minute)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Application handlers
	// ─────────────────────────────────────────────────────────────────────────
	repos := store.Catalog()
	graph := social.NewGraph(store.Friendships())
	retrier := command.NewStoreRetrier(log)

	deps := httpserver.Dependencies{
		Catalog:      command.NewCatalogHandler(repos, log),
		Likes:        command.NewLikeHandler(repos.Films, repos.Users, store.Likes(), retrier, log),
		AddFriend:    command.NewAddFriendHandler(repos.Users, graph, retrier, log),
		RemoveFriend: command.NewRemoveFriendHandler(repos.Users, graph, log),
		Feedback:     command.NewApplyFeedbackHandler(repos.Reviews, repos.Users, feedback.NewEngine(store), retrier, log),
		TopFilms:     query.NewTopFilmsHandler(popularity.NewRanker(store.Likes()), repos.Films, repos.Genres),
		Friends:      query.NewFriendsHandler(repos.Users, graph),
		CatalogQuery: query.NewCatalogHandler(repos),
		Health:       health,
		Limiter:      limiter,
		Logger:       log,
	}

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	server := httpserver.NewServer(serverCfg, deps)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Serve until a signal arrives, then shut down gracefully
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging: JSON in production, text otherwise.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.App.LogLevel}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
