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

package billing

import (
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/storage"
)

// Config holds the configuration for the billing engine.
type Config struct {
	// EventTTLSeconds is how long recorded webhook deliveries stay deduplicable.
	EventTTLSeconds int `koanf:"eventttlseconds"`
}

// DefaultConfig returns the default configuration for the billing engine.
func DefaultConfig() Config {
	return Config{EventTTLSeconds: int(DefaultEventTTL / time.Second)}
}

// Engine configures and owns the webhook ledger and the plan catalog.
type Engine struct {
	config  Config
	storage *storage.Engine

	ledger  *Ledger
	catalog Catalog
}

// NewEngine creates the billing engine on top of the storage engine.
func NewEngine(storageEngine *storage.Engine) *Engine {
	return &Engine{
		config:  DefaultConfig(),
		storage: storageEngine,
	}
}

func (e *Engine) Name() string {
	return "Billing"
}

func (e *Engine) ConfigKey() string {
	return "billing"
}

func (e *Engine) Config() interface{} {
	return &e.config
}

func (e *Engine) Configure(_ core.ServerConfig) error {
	e.ledger = NewLedger(e.storage.Client(), time.Duration(e.config.EventTTLSeconds)*time.Second)
	e.catalog = DefaultCatalog()
	return nil
}

// Ledger returns the configured webhook ledger. Only valid after Configure.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Catalog returns the plan catalog. Only valid after Configure.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}
