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
	"errors"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a record does not exist in the store.
// An expired record is indistinguishable from one that never existed.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when a mutating call is made in a state that does
// not allow it: a write to a record without an identifier, a lifecycle
// transition from the wrong state, or a commit without a passed validation.
// This is a programmer error and not retryable.
var ErrInvalidState = errors.New("invalid state")

// ErrAlreadyExists is returned when a create would overwrite an existing record.
var ErrAlreadyExists = errors.New("record already exists")

// ErrUnauthorized is returned when the caller fails an ownership or passphrase
// check. It carries no detail about which check failed.
var ErrUnauthorized = errors.New("unauthorized")

// ErrTransport is returned when the backing store is unreachable or a round-trip times out.
// It wraps the underlying cause and may be retried with backoff at the caller's discretion.
// A timed-out write must never be interpreted as a successful state transition.
var ErrTransport = errors.New("store transport failure")

// transportError wraps any non-nil store error (other than redis.Nil) in ErrTransport,
// so callers can match on the taxonomy with errors.Is while keeping the cause.
func transportError(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}
	return core.WrapError(ErrTransport, err)
}
