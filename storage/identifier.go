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
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// ShortIdentifierLength is the prefix length used for logs and displays.
const ShortIdentifierLength = 12

// GenerateIdentifier derives a fresh record identifier from 256 bits of secure
// random, pushed through SHA-256 so it can never be derived from record
// content, encoded base-36.
func GenerateIdentifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate identifier: %w", err)
	}
	sum := sha256.Sum256(buf)
	return new(big.Int).SetBytes(sum[:]).Text(36), nil
}

// ShortIdentifier returns a short prefix of the identifier, safe to log.
func ShortIdentifier(identifier string) string {
	if len(identifier) > ShortIdentifierLength {
		return identifier[:ShortIdentifierLength]
	}
	return identifier
}
