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

// Package secret implements the secret sharing lifecycle: a private Metadata
// record for the owner paired with a Secret record holding the payload, which
// can be revealed at most once.
package secret

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/redis/go-redis/v9"
)

const (
	metadataNamespace = "metadata"
	secretNamespace   = "secret"
)

// Lifecycle states. A Secret only ever moves new -> received or new -> burned;
// viewed is a Metadata-side state recording that the owner looked at the
// receipt before the recipient acted.
const (
	StateNew      = "new"
	StateViewed   = "viewed"
	StateReceived = "received"
	StateBurned   = "burned"
)

const (
	fieldKey            = "key"
	fieldCustomerID     = "custid"
	fieldState          = "state"
	fieldSecretKey      = "secret_key"
	fieldSecretShortKey = "secret_shortkey"
	fieldSecretTTL      = "secret_ttl"
	fieldMetadataKey    = "metadata_key"
	fieldRecipients     = "recipients"
	fieldValue          = "value"
	fieldPassphrase     = "passphrase"
	fieldViewed         = "viewed"
	fieldReceived       = "received"
	fieldBurned         = "burned"
)

// nowFunc can be swapped in tests to control lifecycle timestamps.
var nowFunc = time.Now

// Metadata is the owner-facing half of a share. It outlives the Secret so the
// owner can still see what happened to it after the payload is gone.
type Metadata struct {
	record *storage.Record
}

func newMetadata(client redis.UniversalClient, key string, ttl time.Duration) *Metadata {
	opts := []storage.RecordOption{}
	if ttl > 0 {
		opts = append(opts, storage.WithDefaultTTL(ttl))
	}
	return &Metadata{record: storage.NewRecord(client, metadataNamespace, key, opts...)}
}

// Key returns the metadata key, shared only with the owner.
func (m *Metadata) Key() string {
	return m.record.Identifier()
}

// ShortKey returns a short prefix of the key, safe to log.
func (m *Metadata) ShortKey() string {
	return storage.ShortIdentifier(m.Key())
}

// State returns the current lifecycle state.
func (m *Metadata) State(ctx context.Context) (string, error) {
	return m.record.Get(ctx, fieldState)
}

// CustomerID returns the owning customer, "anon" for anonymous shares.
func (m *Metadata) CustomerID(ctx context.Context) (string, error) {
	return m.record.Get(ctx, fieldCustomerID)
}

// SecretKey returns the paired secret's key. Empty once the share reached a
// terminal state: the link must not be handed out for a payload that is gone.
func (m *Metadata) SecretKey(ctx context.Context) (string, error) {
	state, err := m.State(ctx)
	if err != nil {
		return "", err
	}
	if state == StateReceived || state == StateBurned {
		return "", nil
	}
	return m.record.Get(ctx, fieldSecretKey)
}

// SecretShortKey returns a short prefix of the secret key, kept even in
// terminal states so receipts stay correlatable.
func (m *Metadata) SecretShortKey(ctx context.Context) (string, error) {
	return m.record.Get(ctx, fieldSecretShortKey)
}

// PassphraseRequired reports whether the paired secret is passphrase-gated.
// Recorded here as well so it stays answerable after the secret expired.
func (m *Metadata) PassphraseRequired(ctx context.Context) (bool, error) {
	value, err := m.record.Get(ctx, fieldPassphrase)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SecretTTL returns the lifetime the secret was created with.
func (m *Metadata) SecretTTL(ctx context.Context) (time.Duration, error) {
	return m.durationField(ctx, fieldSecretTTL)
}

// Recipients returns the addresses the share was announced to, nil if none.
func (m *Metadata) Recipients(ctx context.Context) ([]string, error) {
	value, err := m.record.Get(ctx, fieldRecipients)
	if err != nil || value == "" {
		return nil, err
	}
	return strings.Split(value, ","), nil
}

// ViewedAt returns when the owner first viewed the receipt, zero if never.
func (m *Metadata) ViewedAt(ctx context.Context) (time.Time, error) {
	return m.timeField(ctx, fieldViewed)
}

// ReceivedAt returns when the recipient revealed the secret, zero if never.
func (m *Metadata) ReceivedAt(ctx context.Context) (time.Time, error) {
	return m.timeField(ctx, fieldReceived)
}

// BurnedAt returns when the owner burned the secret, zero if never.
func (m *Metadata) BurnedAt(ctx context.Context) (time.Time, error) {
	return m.timeField(ctx, fieldBurned)
}

// TTL returns the metadata record's remaining lifetime.
func (m *Metadata) TTL(ctx context.Context) (time.Duration, error) {
	return m.record.TTL(ctx)
}

// markViewed transitions new -> viewed. Any other state is left untouched.
func (m *Metadata) markViewed(ctx context.Context) error {
	state, err := m.State(ctx)
	if err != nil {
		return err
	}
	if state != StateNew {
		return nil
	}
	return m.record.Update(ctx, map[string]string{
		fieldState:  StateViewed,
		fieldViewed: strconv.FormatInt(nowFunc().Unix(), 10),
	})
}

func (m *Metadata) markTerminal(ctx context.Context, state string, timestampField string) error {
	return m.record.Update(ctx, map[string]string{
		fieldState:     state,
		timestampField: strconv.FormatInt(nowFunc().Unix(), 10),
	})
}

func (m *Metadata) durationField(ctx context.Context, field string) (time.Duration, error) {
	value, err := m.record.Get(ctx, field)
	if err != nil || value == "" {
		return 0, err
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func (m *Metadata) timeField(ctx context.Context, field string) (time.Time, error) {
	value, err := m.record.Get(ctx, field)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(seconds, 0), nil
}

// Secret is the recipient-facing half of a share. Its payload survives exactly
// until the first reveal, a burn, or expiry, whichever comes first.
type Secret struct {
	record *storage.Record
}

func newSecret(client redis.UniversalClient, key string, ttl time.Duration) *Secret {
	opts := []storage.RecordOption{}
	if ttl > 0 {
		opts = append(opts, storage.WithDefaultTTL(ttl))
	}
	return &Secret{record: storage.NewRecord(client, secretNamespace, key, opts...)}
}

// Key returns the secret key, shared only with the recipient.
func (s *Secret) Key() string {
	return s.record.Identifier()
}

// ShortKey returns a short prefix of the key, safe to log.
func (s *Secret) ShortKey() string {
	return storage.ShortIdentifier(s.Key())
}

// Exists reports whether the secret is still present in the store.
func (s *Secret) Exists(ctx context.Context) (bool, error) {
	return s.record.Exists(ctx)
}

// State returns the current lifecycle state.
func (s *Secret) State(ctx context.Context) (string, error) {
	return s.record.Get(ctx, fieldState)
}

// MetadataKey returns the key of the paired metadata record.
func (s *Secret) MetadataKey(ctx context.Context) (string, error) {
	return s.record.Get(ctx, fieldMetadataKey)
}

// PassphraseRequired reports whether revealing requires a passphrase.
func (s *Secret) PassphraseRequired(ctx context.Context) (bool, error) {
	hash, err := s.passphraseHash(ctx)
	if err != nil {
		return false, err
	}
	return hash != "", nil
}

// passphraseHash reads the stored hash straight from the store. The local
// cache is bypassed so a gating decision never runs on stale data.
func (s *Secret) passphraseHash(ctx context.Context) (string, error) {
	return s.record.Fetch(ctx, fieldPassphrase)
}

// TTL returns the secret record's remaining lifetime.
func (s *Secret) TTL(ctx context.Context) (time.Duration, error) {
	return s.record.TTL(ctx)
}
