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

// Package session implements browser sessions on the keyed-record layer,
// including identifier rotation to defeat session fixation.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/session/log"
	"github.com/bitrixdevelop/onetimesecret/storage"
)

const namespace = "session"

// DefaultTTL is the session lifetime, extended on every write.
const DefaultTTL = 20 * time.Minute

// indexRetention bounds how long identifiers stay enumerable in the session index.
const indexRetention = 48 * time.Hour

const (
	fieldSessionID     = "sessid"
	fieldIPAddress     = "ipaddress"
	fieldCustomerID    = "custid"
	fieldUserAgent     = "useragent"
	fieldAuthenticated = "authenticated"
	fieldStale         = "stale"
	fieldShrimp        = "shrimp"
	fieldFormFields    = "form_fields"
)

// Session is a single browser session. A session constructed with New has no
// identifier yet and cannot be persisted; only Create assigns one. Defaulting
// the identifier to empty prevents colliding a default key and leaking session
// data across anonymous users.
type Session struct {
	record *storage.Record

	ipAddress  string
	customerID string
	userAgent  string

	// DisableAuth makes Authenticated report false regardless of the persisted
	// flag. It is process-local and never persisted, so a deployment can
	// suspend authentication without destroying session data: the user remains
	// signed in once authentication is enabled again.
	DisableAuth bool

	externalID string
}

// GenerateID returns a fresh session identifier.
func GenerateID() (string, error) {
	return storage.GenerateIdentifier()
}

// Identifier returns the session id, empty for an unsaved session.
func (s *Session) Identifier() string {
	return s.record.Identifier()
}

// ShortID returns a short prefix of the identifier, for logs and displays.
func (s *Session) ShortID() string {
	return storage.ShortIdentifier(s.Identifier())
}

// ExternalID estimates a unique client for the rate limiter. The session id
// can't serve here: an agent can refuse cookies or clear them, changing the
// session id and circumventing the limiter. Instead this hashes the IP address
// and customer id, so anonymous users behind one IP share fate. That collision
// risk is acceptable for throttling but would never be for the session data
// itself, which is why this value must never be used to look up a session.
func (s *Session) ExternalID() string {
	if s.externalID == "" {
		custid := s.customerID
		if custid == "" {
			custid = "anon"
		}
		ip := s.ipAddress
		if ip == "" {
			ip = "UNKNOWNIP"
		}
		sum := sha256.Sum256([]byte(ip + ":" + custid))
		s.externalID = new(big.Int).SetBytes(sum[:]).Text(36)
	}
	return s.externalID
}

// Authenticated reports whether the session is signed in.
// Always false while DisableAuth is set, whatever the persisted flag says.
func (s *Session) Authenticated(ctx context.Context) (bool, error) {
	if s.DisableAuth {
		return false, nil
	}
	value, err := s.record.Get(ctx, fieldAuthenticated)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetAuthenticated persists the authenticated flag.
func (s *Session) SetAuthenticated(ctx context.Context, authenticated bool) error {
	return s.update(ctx, map[string]string{fieldAuthenticated: fmt.Sprintf("%t", authenticated)})
}

// Anonymous reports whether the session belongs to no known customer.
func (s *Session) Anonymous(ctx context.Context) (bool, error) {
	if s.DisableAuth || s.Identifier() == "" {
		return true, nil
	}
	custid, err := s.CustomerID(ctx)
	if err != nil {
		return false, err
	}
	return custid == "" || custid == "anon", nil
}

// CustomerID returns the owning customer id, empty for anonymous sessions.
func (s *Session) CustomerID(ctx context.Context) (string, error) {
	return s.fieldOrLocal(ctx, fieldCustomerID, s.customerID)
}

// SetCustomerID binds the session to a customer, e.g. after sign-in.
func (s *Session) SetCustomerID(ctx context.Context, customerID string) error {
	s.customerID = customerID
	return s.update(ctx, map[string]string{fieldCustomerID: customerID})
}

// IPAddress returns the client IP the session was created from.
func (s *Session) IPAddress(ctx context.Context) (string, error) {
	return s.fieldOrLocal(ctx, fieldIPAddress, s.ipAddress)
}

// UserAgent returns the client user-agent the session was created from.
func (s *Session) UserAgent(ctx context.Context) (string, error) {
	return s.fieldOrLocal(ctx, fieldUserAgent, s.userAgent)
}

func (s *Session) fieldOrLocal(ctx context.Context, field string, local string) (string, error) {
	if s.Identifier() == "" {
		return local, nil
	}
	value, err := s.record.Get(ctx, field)
	if err != nil {
		return "", err
	}
	if value == "" {
		return local, nil
	}
	return value, nil
}

// Stale reports whether the session is marked for identifier replacement.
func (s *Session) Stale(ctx context.Context) (bool, error) {
	value, err := s.record.Get(ctx, fieldStale)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetStale marks the session for replacement on the next privileged transition.
func (s *Session) SetStale(ctx context.Context, stale bool) error {
	return s.update(ctx, map[string]string{fieldStale: fmt.Sprintf("%t", stale)})
}

// Replace rotates the session identifier while keeping all field data, used
// after privilege changes (e.g. login) to defeat session fixation. The old key
// is retired by the rename and the local cache dropped with it; the session is
// marked not-stale under the new key. The identifier always changes.
func (s *Session) Replace(ctx context.Context) error {
	previous := s.ShortID()
	newID, err := GenerateID()
	if err != nil {
		return err
	}
	if err := s.record.Rename(ctx, newID); err != nil {
		return err
	}
	if err := s.update(ctx, map[string]string{fieldStale: "false"}); err != nil {
		return err
	}
	log.Logger().
		WithField(core.LogFieldSessionID, s.ShortID()).
		Debugf("Replaced session identifier (was %s)", previous)
	return nil
}

// AddShrimp ensures the session carries a one-time anti-CSRF token and returns it.
// An existing token is kept, so concurrent forms within one session agree.
func (s *Session) AddShrimp(ctx context.Context) (string, error) {
	current, err := s.record.Get(ctx, fieldShrimp)
	if err != nil {
		return "", err
	}
	if current != "" {
		return current, nil
	}
	token, err := GenerateID()
	if err != nil {
		return "", err
	}
	if err := s.record.Set(ctx, fieldShrimp, token); err != nil {
		return "", err
	}
	return token, nil
}

// CheckShrimp reports whether the guess matches the stored token.
// An absent token never matches.
func (s *Session) CheckShrimp(ctx context.Context, guess string) (bool, error) {
	current, err := s.record.Get(ctx, fieldShrimp)
	if err != nil {
		return false, err
	}
	return current != "" && current == guess, nil
}

// ClearShrimp removes the token so it cannot be replayed.
func (s *Session) ClearShrimp(ctx context.Context) error {
	_, err := s.record.Del(ctx, fieldShrimp)
	return err
}

// SetFormFields stashes a short-lived form snapshot (e.g. to survive a
// validation redirect) as a JSON blob.
func (s *Session) SetFormFields(ctx context.Context, fields map[string]string) error {
	if fields == nil {
		return nil
	}
	blob, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return s.record.Set(ctx, fieldFormFields, string(blob))
}

// ConsumeFormFields returns the stashed form snapshot and removes it in the
// same call; a second call returns nil.
func (s *Session) ConsumeFormFields(ctx context.Context) (map[string]string, error) {
	blob, err := s.record.Del(ctx, fieldFormFields)
	if err != nil {
		return nil, err
	}
	if blob == "" {
		return nil, nil
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(blob), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// TTL returns the session's remaining lifetime.
func (s *Session) TTL(ctx context.Context) (time.Duration, error) {
	return s.record.TTL(ctx)
}

// Destroy removes the session from the store.
func (s *Session) Destroy(ctx context.Context) error {
	return s.record.Destroy(ctx)
}

// update persists fields, always carrying the session id along so the record
// is self-describing.
func (s *Session) update(ctx context.Context, fields map[string]string) error {
	toWrite := map[string]string{fieldSessionID: s.Identifier()}
	for field, value := range fields {
		toWrite[field] = value
	}
	return s.record.Update(ctx, toWrite)
}
