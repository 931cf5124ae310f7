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

// Package logic hosts the application operations. Every operation runs in two
// phases: RaiseConcerns validates inputs and charges the rate limiter without
// touching any state, Process performs the mutation. Process refuses to run
// until RaiseConcerns passed, so a transport hiccup or an exceeded limit can
// never leave a half-executed operation behind.
package logic

import (
	"fmt"
	"strings"

	"github.com/bitrixdevelop/onetimesecret/billing"
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/limiter"
	"github.com/bitrixdevelop/onetimesecret/logic/log"
	"github.com/bitrixdevelop/onetimesecret/secret"
	"github.com/bitrixdevelop/onetimesecret/session"
	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Rate limited event names.
const (
	EventCreateSecret        = "create_secret"
	EventShowMetadata        = "show_metadata"
	EventShowSecret          = "show_secret"
	EventFailedPassphrase    = "failed_passphrase"
	EventBurnSecret          = "burn_secret"
	EventAuthenticateSession = "authenticate_session"
)

// Problem is one reason an operation cannot proceed.
type Problem struct {
	Field   string
	Message string
}

func (p Problem) String() string {
	if p.Field == "" {
		return p.Message
	}
	return p.Field + ": " + p.Message
}

// ConcernsError carries every validation problem found by RaiseConcerns, not
// just the first, so a caller can report them all at once.
type ConcernsError struct {
	Problems []Problem
}

func (e ConcernsError) Error() string {
	messages := make([]string, len(e.Problems))
	for i, problem := range e.Problems {
		messages[i] = problem.String()
	}
	return fmt.Sprintf("operation refused: %s", strings.Join(messages, "; "))
}

// Deps are the configured services the operations run against.
type Deps struct {
	Limiter  *limiter.Limiter
	Sessions *session.Store
	Secrets  *secret.Service
	Ledger   *billing.Ledger
	Catalog  billing.Catalog
}

// operation is the shared two-phase plumbing. Each operation gets a unit of
// work id to correlate its log lines.
type operation struct {
	unitOfWork   string
	greenlighted bool
}

func newOperation() operation {
	return operation{unitOfWork: uuid.NewString()}
}

func (o *operation) logger() *logrus.Entry {
	return log.Logger().WithField(core.LogFieldUnitOfWork, o.unitOfWork)
}

// conclude turns the collected problems into the phase outcome: any problem
// refuses the operation, none greenlights Process.
func (o *operation) conclude(problems []Problem) error {
	if len(problems) > 0 {
		o.logger().Debugf("Operation refused (%d problems)", len(problems))
		return ConcernsError{Problems: problems}
	}
	o.greenlighted = true
	return nil
}

func (o *operation) checkGreenlight() error {
	if !o.greenlighted {
		return storage.ErrInvalidState
	}
	return nil
}
