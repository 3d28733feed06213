// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads the service configuration.
//
// Values are layered, lowest precedence first: flag defaults, the optional
// YAML file, the .env.<ENV> file, the process environment and finally flags
// set on the command line.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Configuration keys. Each key is also a flag name, and its environment
// variable is the key upper-cased with dashes replaced by underscores.
const (
	KeyHTTPAddr        = "http-addr"
	KeyMetricsAddr     = "metrics-addr"
	KeyDatabaseURL     = "database-url"
	KeyRedisURL        = "redis-url"
	KeyLogFormat       = "log-format"
	KeyShutdownTimeout = "shutdown-timeout"
	KeyMaxConns        = "db-max-conns"
	KeyConnectRetries  = "connect-retries"
	KeyAutoMigrate     = "auto-migrate"
)

var keys = []string{
	KeyHTTPAddr,
	KeyMetricsAddr,
	KeyDatabaseURL,
	KeyRedisURL,
	KeyLogFormat,
	KeyShutdownTimeout,
	KeyMaxConns,
	KeyConnectRetries,
	KeyAutoMigrate,
}

// EnvVar names the variable selecting the .env file to load.
const EnvVar = "ENV"

// DefaultEnv is used when EnvVar is unset.
const DefaultEnv = "development"

// Config is the resolved service configuration.
type Config struct {
	HTTPAddr        string
	MetricsAddr     string
	DatabaseURL     string
	RedisURL        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MaxConns        int
	ConnectRetries  int
	AutoMigrate     bool
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":8000",
		MetricsAddr:     "127.0.0.1:9100",
		RedisURL:        "redis://localhost:6379/0",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
		MaxConns:        10,
		ConnectRetries:  5,
	}
}

// RegisterFlags adds a flag for every configuration key to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Defaults()
	flags.String(KeyHTTPAddr, d.HTTPAddr, "GraphQL HTTP listen address")
	flags.String(KeyMetricsAddr, d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String(KeyDatabaseURL, d.DatabaseURL, "PostgreSQL connection URL")
	flags.String(KeyRedisURL, d.RedisURL, "Redis connection URL")
	flags.String(KeyLogFormat, d.LogFormat, "log format (json or text)")
	flags.Duration(KeyShutdownTimeout, d.ShutdownTimeout, "graceful shutdown timeout")
	flags.Int(KeyMaxConns, d.MaxConns, "maximum PostgreSQL and Redis pool connections")
	flags.Int(KeyConnectRetries, d.ConnectRetries, "connection attempts after the first at startup")
	flags.Bool(KeyAutoMigrate, d.AutoMigrate, "apply pending migrations before serving")
}

// Options controls where Load looks for configuration files.
type Options struct {
	// File is an optional YAML configuration file.
	File string
	// EnvDir holds the .env.<ENV> files. Defaults to the working directory.
	EnvDir string
}

// Load resolves the configuration. flags must carry the flags added by
// RegisterFlags and be parsed already.
func Load(flags *pflag.FlagSet, opts Options) (*Config, error) {
	k := koanf.New(".")

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", opts.File).Wrap(err)
		}
	}

	if err := loadDotenv(opts.EnvDir); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if v, ok := os.LookupEnv(EnvName(key)); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
			}
		}
	}

	// Unchanged flags only fill keys no other layer has set.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load flags").Wrap(err)
	}

	cfg := &Config{
		HTTPAddr:        k.String(KeyHTTPAddr),
		MetricsAddr:     k.String(KeyMetricsAddr),
		DatabaseURL:     k.String(KeyDatabaseURL),
		RedisURL:        k.String(KeyRedisURL),
		LogFormat:       k.String(KeyLogFormat),
		ShutdownTimeout: k.Duration(KeyShutdownTimeout),
		MaxConns:        k.Int(KeyMaxConns),
		ConnectRetries:  k.Int(KeyConnectRetries),
		AutoMigrate:     k.Bool(KeyAutoMigrate),
	}
	return cfg, nil
}

// EnvName returns the environment variable for a configuration key.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// loadDotenv loads .env.<ENV> from dir into the process environment,
// overriding variables already set. A missing file is not an error.
func loadDotenv(dir string) error {
	env := os.Getenv(EnvVar)
	if env == "" {
		env = DefaultEnv
	}
	path := filepath.Join(dir, ".env."+env)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return invalid(KeyHTTPAddr, "is required")
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.RedisURL == "" {
		return invalid(KeyRedisURL, "is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid(KeyLogFormat, "must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return invalid(KeyShutdownTimeout, "must be positive, got %s", c.ShutdownTimeout)
	}
	if c.MaxConns <= 0 {
		return invalid(KeyMaxConns, "must be positive, got %d", c.MaxConns)
	}
	if c.ConnectRetries < 0 {
		return invalid(KeyConnectRetries, "must not be negative, got %d", c.ConnectRetries)
	}
	return nil
}

// ValidateDatabase checks only the settings the migrate command needs.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return invalid(KeyDatabaseURL, "is required (flag --%s or %s)", KeyDatabaseURL, EnvName(KeyDatabaseURL))
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(key+" "+format, args...)
}
