/*
 * Copyright (C) 2025 Onetimesecret community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package storage

import (
	"context"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/storage/log"
	"github.com/redis/go-redis/v9"
)

const startupTimeout = 10 * time.Second

// Config holds the configuration for the storage engine.
type Config struct {
	Redis RedisConfig `koanf:"redis"`
}

// RedisConfig specifies config for the Redis backing store.
type RedisConfig struct {
	Address  string `koanf:"address"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database int    `koanf:"database"`
}

// DefaultConfig returns the default configuration for the storage engine.
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
	}
}

func (r RedisConfig) parse() (*redis.Options, error) {
	// Backwards compatibility: if not an address URL, assume simply TCP with host:port
	addr := r.Address
	if !isRedisURL(addr) {
		addr = "redis://" + addr
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, err
	}

	if len(r.Username) > 0 {
		opts.Username = r.Username
	}
	if len(r.Password) > 0 {
		opts.Password = r.Password
	}
	if r.Database != 0 {
		opts.DB = r.Database
	}
	return opts, nil
}

func isRedisURL(address string) bool {
	return strings.HasPrefix(address, "redis://") ||
		strings.HasPrefix(address, "rediss://") ||
		strings.HasPrefix(address, "unix://")
}

// Engine is the storage engine. It owns the Redis client all record types operate on.
type Engine struct {
	config Config
	client redis.UniversalClient
}

// New creates a new storage engine with the default configuration.
func New() *Engine {
	return &Engine{config: DefaultConfig()}
}

func (e *Engine) Name() string {
	return "Storage"
}

func (e *Engine) ConfigKey() string {
	return "storage"
}

func (e *Engine) Config() interface{} {
	return &e.config
}

func (e *Engine) Configure(_ core.ServerConfig) error {
	opts, err := e.config.Redis.parse()
	if err != nil {
		return core.WrapError(ErrTransport, err)
	}
	e.client = redis.NewClient(opts)
	return nil
}

// Start waits for the backing store to become reachable.
// Connection errors are retried with backoff until the startup timeout elapses.
func (e *Engine) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	err := retry.Do(func() error {
		return e.client.Ping(ctx).Err()
	}, retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		return core.WrapError(ErrTransport, err)
	}
	log.Logger().Info("Connected to Redis")
	return nil
}

func (e *Engine) Shutdown() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Client returns the Redis client. Only valid after Configure has been called.
func (e *Engine) Client() redis.UniversalClient {
	return e.client
}

func (e *Engine) Diagnostics() []core.DiagnosticResult {
	connected := false
	if e.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		connected = e.client.Ping(ctx).Err() == nil
	}
	return []core.DiagnosticResult{
		&core.GenericDiagnosticResult{Title: "redis_address", Value: e.config.Redis.Address},
		&core.GenericDiagnosticResult{Title: "redis_connected", Value: connected},
	}
}
