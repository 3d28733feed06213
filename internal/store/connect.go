// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store opens the PostgreSQL and Redis handles shared by the server
// and owns the schema migrations.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultRetryBase is the first backoff interval between connection attempts.
const DefaultRetryBase = 500 * time.Millisecond

// ConnectOptions tunes startup connection attempts.
type ConnectOptions struct {
	// Retries is the number of attempts after the first one.
	Retries uint64
	// RetryBase is the initial backoff, doubled on every attempt.
	RetryBase time.Duration
	// MaxConns caps the Postgres and Redis pools. Zero keeps the client
	// defaults.
	MaxConns int32
}

func (o ConnectOptions) backoff() retry.Backoff {
	base := o.RetryBase
	if base <= 0 {
		base = DefaultRetryBase
	}
	return retry.WithMaxRetries(o.Retries, retry.NewExponential(base))
}

// Connect opens a pgx pool on databaseURL and pings it, retrying with
// exponential backoff until the database answers.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	var pool *pgxpool.Pool
	err = retry.Do(ctx, opts.backoff(), func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("host", cfg.ConnConfig.Host).
			With("attempts", opts.Retries+1).
			Wrap(err)
	}
	return pool, nil
}

// ConnectRedis opens a client on redisURL (redis://host:port/db) and pings
// it with the same retry policy as Connect.
func ConnectRedis(ctx context.Context, redisURL string, opts ConnectOptions) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, oops.Code("REDIS_CONFIG_INVALID").With("operation", "parse redis url").Wrap(err)
	}

	if opts.MaxConns > 0 {
		redisOpts.PoolSize = int(opts.MaxConns)
	}

	client := redis.NewClient(redisOpts)
	err = retry.Do(ctx, opts.backoff(), func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close() //nolint:errcheck // connect error takes precedence
		return nil, oops.Code("REDIS_CONNECT_FAILED").
			With("addr", redisOpts.Addr).
			With("attempts", opts.Retries+1).
			Wrap(err)
	}
	return client, nil
}
