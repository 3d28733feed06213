// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	accountpg "github.com/holomush/accounts/internal/account/postgres"
	"github.com/holomush/accounts/internal/observability"
	"github.com/holomush/accounts/internal/server"
	"github.com/holomush/accounts/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory opens the PostgreSQL pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, url string, opts store.ConnectOptions) (Pool, error)

	// RedisFactory opens the Redis client.
	// Default: store.ConnectRedis
	RedisFactory func(ctx context.Context, url string, opts store.ConnectOptions) (goredis.UniversalClient, error)

	// MigratorFactory creates the migrator used by --auto-migrate.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (AutoMigrator, error)

	// HTTPServerFactory creates the API server.
	// Default: server.New
	HTTPServerFactory func(addr string, handler http.Handler, logger *slog.Logger) HTTPServer

	// ObservabilityServerFactory creates the metrics and probe server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, url string, opts store.ConnectOptions) (Pool, error) {
			pool, err := store.Connect(ctx, url, opts)
			if err != nil {
				return nil, err //nolint:wrapcheck // store errors carry oops codes
			}
			return pool, nil
		}
	}
	if out.RedisFactory == nil {
		out.RedisFactory = func(ctx context.Context, url string, opts store.ConnectOptions) (goredis.UniversalClient, error) {
			client, err := store.ConnectRedis(ctx, url, opts)
			if err != nil {
				return nil, err //nolint:wrapcheck // store errors carry oops codes
			}
			return client, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (AutoMigrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err //nolint:wrapcheck // store errors carry oops codes
			}
			return m, nil
		}
	}
	if out.HTTPServerFactory == nil {
		out.HTTPServerFactory = func(addr string, handler http.Handler, logger *slog.Logger) HTTPServer {
			return server.New(addr, handler, logger)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, readiness, logger)
		}
	}
	return &out
}

// Pool is the PostgreSQL handle used by serve. *pgxpool.Pool satisfies it.
type Pool interface {
	accountpg.DB
	Ping(ctx context.Context) error
	Close()
}

// AutoMigrator wraps the methods used from store.Migrator at startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// HTTPServer wraps the methods used from server.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

var (
	_ Pool                = (*pgxpool.Pool)(nil)
	_ AutoMigrator        = (*store.Migrator)(nil)
	_ HTTPServer          = (*server.Server)(nil)
	_ ObservabilityServer = (*observability.Server)(nil)
)
