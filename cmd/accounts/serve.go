// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accounts/internal/account"
	accountpg "github.com/holomush/accounts/internal/account/postgres"
	accountredis "github.com/holomush/accounts/internal/account/redis"
	"github.com/holomush/accounts/internal/config"
	"github.com/holomush/accounts/internal/graph"
	"github.com/holomush/accounts/internal/logging"
	"github.com/holomush/accounts/internal/observability"
	"github.com/holomush/accounts/internal/server"
	"github.com/holomush/accounts/internal/store"
	"github.com/holomush/accounts/pkg/errutil"
)

// readinessTimeout bounds one readiness probe across all dependencies.
const readinessTimeout = 2 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL API server",
		Long: `Start the GraphQL API server. It connects to PostgreSQL and Redis,
optionally applies pending migrations, and serves until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err //nolint:wrapcheck // config errors carry oops codes
			}

			logger := logging.SetDefault("accounts", version, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cmd.Println("accounts server starting")
			return runServeWithDeps(ctx, cfg, logger, nil)
		},
	}
}

// runServeWithDeps runs the server until ctx is cancelled or a server
// fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	connectOpts := store.ConnectOptions{
		Retries:  uint64(max(cfg.ConnectRetries, 0)),
		MaxConns: int32(min(cfg.MaxConns, 1<<16)), //nolint:gosec // bounded above
	}

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL, connectOpts)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	rdb, err := deps.RedisFactory(ctx, cfg.RedisURL, connectOpts)
	if err != nil {
		return oops.With("operation", "connect to redis").Wrap(err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			errutil.LogError(logger, "failed to close redis client", err)
		}
	}()
	logger.Info("connected to redis")

	if cfg.AutoMigrate {
		if err := runAutoMigration(cfg.DatabaseURL, deps.MigratorFactory, logger); err != nil {
			return err
		}
	}

	hasher := account.NewArgon2idHasher()
	users := accountpg.NewUserRepository(pool)
	tx := accountpg.NewTransactor(pool)
	sessions := accountredis.NewSessionStore(rdb)

	userService, err := account.NewUserServiceWithLogger(users, tx, hasher, logger)
	if err != nil {
		return oops.With("operation", "create user service").Wrap(err)
	}
	authService, err := account.NewAuthServiceWithLogger(users, tx, hasher, logger)
	if err != nil {
		return oops.With("operation", "create auth service").Wrap(err)
	}

	var (
		obsServer ObservabilityServer
		obsErrCh  <-chan error
		metrics   *observability.Metrics
	)
	if cfg.MetricsAddr != "" {
		readiness := observability.PingChecker(readinessTimeout,
			observability.Check{Name: "postgres", Ping: pool.Ping},
			observability.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		)
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, readiness, logger)
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		metrics = obsServer.Metrics()
	}

	resolver, err := graph.NewResolver(userService, authService, sessions, logger, metrics)
	if err != nil {
		stopServers(logger, cfg.ShutdownTimeout, nil, obsServer)
		return oops.With("operation", "create resolver").Wrap(err)
	}
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		stopServers(logger, cfg.ShutdownTimeout, nil, obsServer)
		return oops.With("operation", "parse schema").Wrap(err)
	}
	handler := graph.NewHandler(schema, sessions, userService, logger, metrics)

	httpServer := deps.HTTPServerFactory(cfg.HTTPAddr, server.NewRouter(handler, logger), logger)
	httpErrCh, err := httpServer.Start()
	if err != nil {
		stopServers(logger, cfg.ShutdownTimeout, nil, obsServer)
		return oops.With("operation", "start http server").Wrap(err)
	}

	logger.Info("accounts server ready", "http_addr", httpServer.Addr())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down", "reason", context.Cause(ctx))
	case err, ok := <-httpErrCh:
		if ok && err != nil {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	case err, ok := <-obsErrCh:
		if ok && err != nil {
			serveErr = oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
		}
	}

	stopServers(logger, cfg.ShutdownTimeout, httpServer, obsServer)
	logger.Info("shutdown complete")
	return serveErr
}

// stopServers stops the API server first so in-flight requests finish
// before the probes go away. Nil servers are skipped.
func stopServers(logger *slog.Logger, timeout time.Duration, httpServer HTTPServer, obsServer ObservabilityServer) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Stop(ctx); err != nil {
			errutil.LogError(logger, "error stopping http server", err)
		}
	}
	if obsServer != nil {
		if err := obsServer.Stop(ctx); err != nil {
			errutil.LogError(logger, "error stopping observability server", err)
		}
	}
}

// runAutoMigration applies pending migrations before serving.
func runAutoMigration(databaseURL string, factory func(string) (AutoMigrator, error), logger *slog.Logger) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			errutil.LogError(logger, "failed to close migrator", err)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database migrations applied")
	return nil
}
