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

package logic

import (
	"github.com/bitrixdevelop/onetimesecret/billing"
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/limiter"
	"github.com/bitrixdevelop/onetimesecret/secret"
	"github.com/bitrixdevelop/onetimesecret/session"
)

// Engine assembles the operation dependencies from the other engines. It must
// be registered after them, so their services exist by the time it configures.
type Engine struct {
	limiter  *limiter.Engine
	sessions *session.Engine
	secrets  *secret.Engine
	billing  *billing.Engine

	deps Deps
}

// NewEngine creates the logic engine on top of the service engines.
func NewEngine(limiterEngine *limiter.Engine, sessionsEngine *session.Engine, secretsEngine *secret.Engine, billingEngine *billing.Engine) *Engine {
	return &Engine{
		limiter:  limiterEngine,
		sessions: sessionsEngine,
		secrets:  secretsEngine,
		billing:  billingEngine,
	}
}

func (e *Engine) Name() string {
	return "Logic"
}

func (e *Engine) Configure(_ core.ServerConfig) error {
	e.deps = Deps{
		Limiter:  e.limiter.Limiter(),
		Sessions: e.sessions.Store(),
		Secrets:  e.secrets.Service(),
		Ledger:   e.billing.Ledger(),
		Catalog:  e.billing.Catalog(),
	}
	return nil
}

// Deps returns the assembled dependencies. Only valid after Configure.
func (e *Engine) Deps() Deps {
	return e.deps
}
