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

package limiter

import (
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/storage"
)

// Config holds the configuration for the rate limiter engine.
type Config struct {
	// WindowSeconds is the size of the counting window.
	WindowSeconds int `koanf:"windowseconds"`
	// DefaultCeiling applies to events without an entry in Events.
	DefaultCeiling int64 `koanf:"defaultceiling"`
	// Events maps event names to their ceilings.
	Events map[string]int64 `koanf:"events"`
}

// DefaultConfig returns the default configuration for the rate limiter engine.
func DefaultConfig() Config {
	return Config{
		WindowSeconds:  int(DefaultWindow / time.Second),
		DefaultCeiling: DefaultCeiling,
	}
}

// Engine configures and owns the Limiter instance.
// The ceiling table is built once during Configure and immutable afterwards.
type Engine struct {
	config  Config
	storage *storage.Engine

	instance *Limiter
}

// NewEngine creates the rate limiter engine on top of the storage engine.
func NewEngine(storageEngine *storage.Engine) *Engine {
	return &Engine{
		config:  DefaultConfig(),
		storage: storageEngine,
	}
}

func (e *Engine) Name() string {
	return "RateLimiter"
}

func (e *Engine) ConfigKey() string {
	return "ratelimit"
}

func (e *Engine) Config() interface{} {
	return &e.config
}

func (e *Engine) Configure(_ core.ServerConfig) error {
	window := time.Duration(e.config.WindowSeconds) * time.Second
	if window <= 0 {
		window = DefaultWindow
	}
	fallback := e.config.DefaultCeiling
	if fallback <= 0 {
		fallback = DefaultCeiling
	}
	e.instance = New(e.storage.Client(), window, NewCeilings(e.config.Events, fallback))
	return nil
}

// Limiter returns the configured limiter instance. Only valid after Configure.
func (e *Engine) Limiter() *Limiter {
	return e.instance
}
