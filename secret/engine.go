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

package secret

import (
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/storage"
)

// DefaultTTL is applied to shares created without a requested lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// MaxTTL caps the requested lifetime of any share.
const MaxTTL = 30 * 24 * time.Hour

// Config holds the configuration for the secrets engine.
type Config struct {
	// DefaultTTLSeconds is the lifetime of shares that do not request one.
	DefaultTTLSeconds int `koanf:"defaultttlseconds"`
	// MaxTTLSeconds caps the requested lifetime of a share.
	MaxTTLSeconds int `koanf:"maxttlseconds"`
}

// DefaultConfig returns the default configuration for the secrets engine.
func DefaultConfig() Config {
	return Config{
		DefaultTTLSeconds: int(DefaultTTL / time.Second),
		MaxTTLSeconds:     int(MaxTTL / time.Second),
	}
}

// Engine configures and owns the secret sharing service.
type Engine struct {
	config  Config
	storage *storage.Engine

	instance *Service
}

// NewEngine creates the secrets engine on top of the storage engine.
func NewEngine(storageEngine *storage.Engine) *Engine {
	return &Engine{
		config:  DefaultConfig(),
		storage: storageEngine,
	}
}

func (e *Engine) Name() string {
	return "Secrets"
}

func (e *Engine) ConfigKey() string {
	return "secrets"
}

func (e *Engine) Config() interface{} {
	return &e.config
}

func (e *Engine) Configure(_ core.ServerConfig) error {
	e.instance = NewService(
		e.storage.Client(),
		time.Duration(e.config.DefaultTTLSeconds)*time.Second,
		time.Duration(e.config.MaxTTLSeconds)*time.Second,
	)
	return nil
}

// Service returns the configured secret sharing service. Only valid after Configure.
func (e *Engine) Service() *Service {
	return e.instance
}
