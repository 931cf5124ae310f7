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
	"errors"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/secret"
	"github.com/bitrixdevelop/onetimesecret/session"
	"github.com/bitrixdevelop/onetimesecret/storage"
)

// CreateSecret shares a new secret on behalf of a session.
type CreateSecret struct {
	operation
	deps Deps

	sess    *session.Session
	planID  string
	value   string
	options secret.ShareOptions
}

// NewCreateSecret prepares the operation. The requested lifetime may be zero
// for the plan's default.
func NewCreateSecret(deps Deps, sess *session.Session, planID string, value string, options secret.ShareOptions) *CreateSecret {
	return &CreateSecret{
		operation: newOperation(),
		deps:      deps,
		sess:      sess,
		planID:    planID,
		value:     value,
		options:   options,
	}
}

// RaiseConcerns charges the rate limiter and validates the payload against
// the session's plan. Nothing is stored.
func (l *CreateSecret) RaiseConcerns(ctx context.Context) error {
	if _, err := l.deps.Limiter.Charge(ctx, l.sess.ExternalID(), EventCreateSecret); err != nil {
		return err
	}

	plan := l.deps.Catalog.Plan(l.planID)
	var problems []Problem
	if l.value == "" {
		problems = append(problems, Problem{Field: "secret", Message: "cannot be empty"})
	}
	if int64(len(l.value)) > plan.Options.Size {
		problems = append(problems, Problem{Field: "secret", Message: "exceeds the plan's size limit"})
	}
	return l.conclude(problems)
}

// Process creates the share. The lifetime is capped at the plan's maximum.
func (l *CreateSecret) Process(ctx context.Context) (*secret.Metadata, *secret.Secret, error) {
	if err := l.checkGreenlight(); err != nil {
		return nil, nil, err
	}
	customerID, err := l.sess.CustomerID(ctx)
	if err != nil {
		return nil, nil, err
	}

	options := l.options
	plan := l.deps.Catalog.Plan(l.planID)
	if options.TTL <= 0 || options.TTL > plan.Options.TTL {
		options.TTL = plan.Options.TTL
	}

	metadata, sec, err := l.deps.Secrets.CreateShare(ctx, customerID, l.value, options)
	if err != nil {
		return nil, nil, err
	}
	l.logger().
		WithField(core.LogFieldMetadataKey, metadata.ShortKey()).
		WithField(core.LogFieldSessionID, l.sess.ShortID()).
		Debug("Created secret")
	return metadata, sec, nil
}

// ShowMetadata returns the owner's receipt for a share.
type ShowMetadata struct {
	operation
	deps Deps

	sess *session.Session
	key  string
}

// NewShowMetadata prepares the operation.
func NewShowMetadata(deps Deps, sess *session.Session, key string) *ShowMetadata {
	return &ShowMetadata{
		operation: newOperation(),
		deps:      deps,
		sess:      sess,
		key:       key,
	}
}

// RaiseConcerns charges the rate limiter and validates the key.
func (l *ShowMetadata) RaiseConcerns(ctx context.Context) error {
	if _, err := l.deps.Limiter.Charge(ctx, l.sess.ExternalID(), EventShowMetadata); err != nil {
		return err
	}
	var problems []Problem
	if l.key == "" {
		problems = append(problems, Problem{Field: "key", Message: "cannot be empty"})
	}
	return l.conclude(problems)
}

// Process loads the receipt, recording the owner's first view.
func (l *ShowMetadata) Process(ctx context.Context) (*secret.Receipt, error) {
	if err := l.checkGreenlight(); err != nil {
		return nil, err
	}
	return l.deps.Secrets.ShowMetadata(ctx, l.key)
}

// RevealSecret hands a recipient the payload, at most once.
type RevealSecret struct {
	operation
	deps Deps

	sess       *session.Session
	key        string
	passphrase string
}

// NewRevealSecret prepares the operation.
func NewRevealSecret(deps Deps, sess *session.Session, key string, passphrase string) *RevealSecret {
	return &RevealSecret{
		operation:  newOperation(),
		deps:       deps,
		sess:       sess,
		key:        key,
		passphrase: passphrase,
	}
}

// RaiseConcerns charges the rate limiter and validates the key.
func (l *RevealSecret) RaiseConcerns(ctx context.Context) error {
	if _, err := l.deps.Limiter.Charge(ctx, l.sess.ExternalID(), EventShowSecret); err != nil {
		return err
	}
	var problems []Problem
	if l.key == "" {
		problems = append(problems, Problem{Field: "key", Message: "cannot be empty"})
	}
	return l.conclude(problems)
}

// Process reveals the payload. A passphrase mismatch additionally charges the
// failed-passphrase counter, so guessing gets cut off well before the general
// traffic ceiling.
func (l *RevealSecret) Process(ctx context.Context) (string, error) {
	if err := l.checkGreenlight(); err != nil {
		return "", err
	}
	value, err := l.deps.Secrets.RevealSecret(ctx, l.key, l.passphrase)
	if err != nil {
		if errors.Is(err, storage.ErrUnauthorized) {
			if _, chargeErr := l.deps.Limiter.Charge(ctx, l.sess.ExternalID(), EventFailedPassphrase); chargeErr != nil {
				return "", chargeErr
			}
		}
		return "", err
	}
	l.logger().
		WithField(core.LogFieldSessionID, l.sess.ShortID()).
		Debug("Revealed secret")
	return value, nil
}

// BurnSecret destroys a share on the owner's initiative.
type BurnSecret struct {
	operation
	deps Deps

	sess *session.Session
	key  string
}

// NewBurnSecret prepares the operation. The key is the metadata key.
func NewBurnSecret(deps Deps, sess *session.Session, key string) *BurnSecret {
	return &BurnSecret{
		operation: newOperation(),
		deps:      deps,
		sess:      sess,
		key:       key,
	}
}

// RaiseConcerns charges the rate limiter and validates the key.
func (l *BurnSecret) RaiseConcerns(ctx context.Context) error {
	if _, err := l.deps.Limiter.Charge(ctx, l.sess.ExternalID(), EventBurnSecret); err != nil {
		return err
	}
	var problems []Problem
	if l.key == "" {
		problems = append(problems, Problem{Field: "key", Message: "cannot be empty"})
	}
	return l.conclude(problems)
}

// Process burns the share and returns the updated receipt.
func (l *BurnSecret) Process(ctx context.Context) (*secret.Receipt, error) {
	if err := l.checkGreenlight(); err != nil {
		return nil, err
	}
	customerID, err := l.sess.CustomerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.deps.Secrets.Burn(ctx, l.key, customerID); err != nil {
		return nil, err
	}
	l.logger().
		WithField(core.LogFieldSessionID, l.sess.ShortID()).
		Debug("Burned secret")
	return l.deps.Secrets.ShowMetadata(ctx, l.key)
}
