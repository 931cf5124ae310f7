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

package core

import (
	"fmt"

	"github.com/go-errors/errors"
)

// WrapError combines a sentinel with its cause. Unlike fmt.Errorf with %w,
// errors.Is matches both the sentinel and the cause chain.
func WrapError(sentinel error, cause error) error {
	return wrappedError{sentinel: sentinel, cause: cause}
}

type wrappedError struct {
	sentinel error
	cause    error
}

func (w wrappedError) Error() string {
	// Sprintf tolerates a nil sentinel or cause.
	return fmt.Sprintf("%s: %s", w.sentinel, w.cause)
}

func (w wrappedError) Is(other error) bool {
	return errors.Is(w.sentinel, other)
}

func (w wrappedError) Unwrap() error {
	return w.cause
}
