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
	"context"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/session"
	"github.com/bitrixdevelop/onetimesecret/storage"
)

// CredentialCheck reports whether the presented credentials are valid.
// Verification itself lives with the caller; this package only owns what a
// sign-in does to the session.
type CredentialCheck func(ctx context.Context) (bool, error)

// AuthenticateSession signs a session in as a customer.
type AuthenticateSession struct {
	operation
	deps Deps

	sess       *session.Session
	customerID string
	check      CredentialCheck
}

// NewAuthenticateSession prepares the operation.
func NewAuthenticateSession(deps Deps, sess *session.Session, customerID string, check CredentialCheck) *AuthenticateSession {
	return &AuthenticateSession{
		operation:  newOperation(),
		deps:       deps,
		sess:       sess,
		customerID: customerID,
		check:      check,
	}
}

// RaiseConcerns charges the rate limiter and validates the inputs. The charge
// lands before the credential check, so failed attempts pile onto one counter.
func (l *AuthenticateSession) RaiseConcerns(ctx context.Context) error {
	if _, err := l.deps.Limiter.Charge(ctx, l.sess.ExternalID(), EventAuthenticateSession); err != nil {
		return err
	}
	var problems []Problem
	if l.customerID == "" {
		problems = append(problems, Problem{Field: "custid", Message: "cannot be empty"})
	}
	if l.check == nil {
		problems = append(problems, Problem{Field: "credentials", Message: "missing"})
	}
	return l.conclude(problems)
}

// Process verifies the credentials. On success the session identifier is
// replaced before any privilege is granted, and the attempt counter is
// cleared. On failure the session is left exactly as it was.
func (l *AuthenticateSession) Process(ctx context.Context) error {
	if err := l.checkGreenlight(); err != nil {
		return err
	}
	ok, err := l.check(ctx)
	if err != nil {
		return err
	}
	if !ok {
		l.logger().
			WithField(core.LogFieldSessionID, l.sess.ShortID()).
			Debug("Rejected sign-in")
		return storage.ErrUnauthorized
	}

	if err := l.sess.Replace(ctx); err != nil {
		return err
	}
	if err := l.sess.SetCustomerID(ctx, l.customerID); err != nil {
		return err
	}
	if err := l.sess.SetAuthenticated(ctx, true); err != nil {
		return err
	}
	if err := l.deps.Limiter.Clear(ctx, l.sess.ExternalID(), EventAuthenticateSession); err != nil {
		return err
	}
	l.logger().
		WithField(core.LogFieldSessionID, l.sess.ShortID()).
		WithField(core.LogFieldCustomerID, l.customerID).
		Debug("Authenticated session")
	return nil
}
