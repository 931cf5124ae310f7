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

package secret

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/secret/log"
	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// AnonymousCustomerID is recorded as the owner of shares created without an account.
const AnonymousCustomerID = "anon"

const (
	markerGone     = "share_gone"
	markerConflict = "state_conflict"
)

// consumeScript flips a secret into a terminal state and rips out the payload
// in a single store round trip, so two concurrent reveals can never both win.
// ARGV[1] is the required current state, ARGV[2] the terminal state.
var consumeScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if state == false then
  return redis.error_reply('` + markerGone + `')
end
if state ~= ARGV[1] then
  return redis.error_reply('` + markerConflict + `')
end
local value = redis.call('HGET', KEYS[1], 'value')
redis.call('HSET', KEYS[1], 'state', ARGV[2])
redis.call('HDEL', KEYS[1], 'value')
if value == false then
  return ''
end
return value
`)

// ShareOptions tune a new share. The zero value creates a share with the
// service's default lifetime, no passphrase and no recipients.
type ShareOptions struct {
	// Passphrase gates the reveal when non-empty. Stored as a bcrypt hash.
	Passphrase string
	// TTL is the secret's lifetime, the service default when zero.
	TTL time.Duration
	// Recipients lists addresses the share is announced to. Recorded on the
	// metadata only; delivery is up to the caller.
	Recipients []string
}

// Receipt is the owner-facing projection of a share. It never carries the
// payload, and carries the secret key only while the secret can still be revealed.
type Receipt struct {
	Key                string
	ShortKey           string
	CustomerID         string
	State              string
	SecretKey          string
	SecretShortKey     string
	SecretAvailable    bool
	PassphraseRequired bool
	Recipients         []string
	SecretTTL          time.Duration
	CreatedAt          time.Time
	ViewedAt           time.Time
	ReceivedAt         time.Time
	BurnedAt           time.Time
}

// Service owns the secret sharing lifecycle.
type Service struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	maxTTL     time.Duration
}

// NewService creates a Service on the given store client. Shares created
// without a lifetime get defaultTTL; requested lifetimes are capped at maxTTL.
func NewService(client redis.UniversalClient, defaultTTL time.Duration, maxTTL time.Duration) *Service {
	return &Service{
		client:     client,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
	}
}

// CreateShare creates a Metadata/Secret pair in state new. The two keys are
// generated independently: knowing one must not allow deriving the other. A
// non-empty passphrase is stored as a bcrypt hash on the secret, never in
// clear. The metadata lives twice as long as the secret so the owner can still
// read the receipt of an expired share.
func (s *Service) CreateShare(ctx context.Context, customerID string, value string, options ShareOptions) (*Metadata, *Secret, error) {
	if customerID == "" {
		customerID = AnonymousCustomerID
	}
	ttl := s.clampTTL(options.TTL)

	metadataKey, err := storage.GenerateIdentifier()
	if err != nil {
		return nil, nil, err
	}
	secretKey, err := storage.GenerateIdentifier()
	if err != nil {
		return nil, nil, err
	}

	secretFields := map[string]string{
		fieldKey:         secretKey,
		fieldCustomerID:  customerID,
		fieldMetadataKey: metadataKey,
		fieldState:       StateNew,
		fieldValue:       value,
	}
	metadataFields := map[string]string{
		fieldKey:            metadataKey,
		fieldCustomerID:     customerID,
		fieldSecretKey:      secretKey,
		fieldSecretShortKey: storage.ShortIdentifier(secretKey),
		fieldState:          StateNew,
		fieldSecretTTL:      strconv.FormatInt(int64(ttl/time.Second), 10),
	}
	if options.Passphrase != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(options.Passphrase), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, err
		}
		secretFields[fieldPassphrase] = string(hash)
		metadataFields[fieldPassphrase] = "true"
	}
	if len(options.Recipients) > 0 {
		metadataFields[fieldRecipients] = strings.Join(options.Recipients, ",")
	}

	sec := newSecret(s.client, secretKey, ttl)
	if err := sec.record.Update(ctx, secretFields); err != nil {
		return nil, nil, err
	}
	metadata := newMetadata(s.client, metadataKey, 2*ttl)
	if err := metadata.record.Update(ctx, metadataFields); err != nil {
		return nil, nil, err
	}

	createdTotal.Inc()
	log.Logger().
		WithField(core.LogFieldMetadataKey, metadata.ShortKey()).
		WithField(core.LogFieldSecretKey, sec.ShortKey()).
		WithField(core.LogFieldCustomerID, customerID).
		Debug("Created share")
	return metadata, sec, nil
}

// LoadMetadata returns the metadata stored under the given key,
// ErrNotFound when it is absent or expired.
func (s *Service) LoadMetadata(ctx context.Context, key string) (*Metadata, error) {
	metadata := newMetadata(s.client, key, 0)
	exists, err := metadata.record.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}
	return metadata, nil
}

// LoadSecret returns the secret stored under the given key,
// ErrNotFound when it is absent or expired.
func (s *Service) LoadSecret(ctx context.Context, key string) (*Secret, error) {
	sec := newSecret(s.client, key, 0)
	exists, err := sec.record.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}
	return sec, nil
}

// ShowMetadata returns the owner's receipt for a share and records the first
// view (new -> viewed). The receipt keeps answering state and passphrase
// questions after the secret itself is gone.
func (s *Service) ShowMetadata(ctx context.Context, key string) (*Receipt, error) {
	metadata, err := s.LoadMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := metadata.markViewed(ctx); err != nil {
		return nil, err
	}
	return s.receipt(ctx, metadata)
}

// RevealSecret returns the payload stored under the given secret key and
// consumes it: the first reveal wins, every later one returns ErrNotFound. A
// passphrase-gated secret checks the passphrase first and a mismatch returns
// ErrUnauthorized without consuming anything.
func (s *Service) RevealSecret(ctx context.Context, key string, passphrase string) (string, error) {
	sec, err := s.LoadSecret(ctx, key)
	if err != nil {
		return "", err
	}

	hash, err := sec.passphraseHash(ctx)
	if err != nil {
		return "", err
	}
	if hash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)); err != nil {
			passphraseFailuresTotal.Inc()
			return "", storage.ErrUnauthorized
		}
	}

	metadataKey, err := sec.MetadataKey(ctx)
	if err != nil {
		return "", err
	}

	value, err := s.consume(ctx, key, StateReceived)
	if err != nil {
		// A secret in a terminal state is indistinguishable from one that never existed.
		if errors.Is(err, storage.ErrInvalidState) {
			return "", storage.ErrNotFound
		}
		return "", err
	}

	s.markMetadata(ctx, metadataKey, StateReceived, fieldReceived)
	revealedTotal.Inc()
	log.Logger().
		WithField(core.LogFieldSecretKey, sec.ShortKey()).
		WithField(core.LogFieldState, StateReceived).
		Debug("Revealed secret")
	return value, nil
}

// Burn destroys the payload on the owner's initiative (new -> burned) without
// revealing it. The key is the metadata key: only the owner's half grants the
// right to burn. A share owned by a signed-up customer can only be burned by
// that customer; anonymous shares are burnable by anyone holding the metadata
// key. A share that already reached a terminal state returns ErrNotFound,
// indistinguishable from one that never existed.
func (s *Service) Burn(ctx context.Context, key string, customerID string) error {
	metadata, err := s.LoadMetadata(ctx, key)
	if err != nil {
		return err
	}

	owner, err := metadata.CustomerID(ctx)
	if err != nil {
		return err
	}
	if owner != "" && owner != AnonymousCustomerID && owner != customerID {
		return storage.ErrUnauthorized
	}

	state, err := metadata.State(ctx)
	if err != nil {
		return err
	}
	if state != StateNew && state != StateViewed {
		return storage.ErrNotFound
	}

	secretKey, err := metadata.record.Get(ctx, fieldSecretKey)
	if err != nil {
		return err
	}
	if _, err := s.consume(ctx, secretKey, StateBurned); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// An already expired secret can still be burned: the receipt records the intent.
		case errors.Is(err, storage.ErrInvalidState):
			// The secret reached a terminal state under a fresher receipt.
			return storage.ErrNotFound
		default:
			return err
		}
	}

	if err := metadata.markTerminal(ctx, StateBurned, fieldBurned); err != nil {
		return err
	}
	burnedTotal.Inc()
	log.Logger().
		WithField(core.LogFieldMetadataKey, metadata.ShortKey()).
		WithField(core.LogFieldState, StateBurned).
		Debug("Burned share")
	return nil
}

// consume runs the terminal-state script against a secret key.
func (s *Service) consume(ctx context.Context, secretKey string, terminal string) (string, error) {
	secretStoreKey := storage.Key(secretNamespace, secretKey, storage.KindObject)
	value, err := consumeScript.Run(ctx, s.client, []string{secretStoreKey}, StateNew, terminal).Text()
	if err != nil {
		switch {
		case strings.Contains(err.Error(), markerGone):
			return "", storage.ErrNotFound
		case strings.Contains(err.Error(), markerConflict):
			return "", storage.ErrInvalidState
		default:
			return "", core.WrapError(storage.ErrTransport, err)
		}
	}
	return value, nil
}

// markMetadata moves the receipt to a terminal state, unless the metadata
// record is already gone. It must not be resurrected by a late write.
func (s *Service) markMetadata(ctx context.Context, metadataKey string, state string, timestampField string) {
	metadata, err := s.LoadMetadata(ctx, metadataKey)
	if err != nil {
		return
	}
	if err := metadata.markTerminal(ctx, state, timestampField); err != nil {
		log.Logger().
			WithField(core.LogFieldMetadataKey, storage.ShortIdentifier(metadataKey)).
			WithError(err).
			Warn("Failed to update receipt state")
	}
}

func (s *Service) receipt(ctx context.Context, metadata *Metadata) (*Receipt, error) {
	fields, err := metadata.record.Fields(ctx)
	if err != nil {
		return nil, err
	}
	state := fields[fieldState]

	secretKey := fields[fieldSecretKey]
	available := false
	if state == StateNew || state == StateViewed {
		available, err = newSecret(s.client, secretKey, 0).Exists(ctx)
		if err != nil {
			return nil, err
		}
	}
	if state == StateReceived || state == StateBurned {
		secretKey = ""
	}

	result := &Receipt{
		Key:                metadata.Key(),
		ShortKey:           metadata.ShortKey(),
		CustomerID:         fields[fieldCustomerID],
		State:              state,
		SecretKey:          secretKey,
		SecretShortKey:     fields[fieldSecretShortKey],
		SecretAvailable:    available,
		PassphraseRequired: fields[fieldPassphrase] == "true",
	}
	if recipients := fields[fieldRecipients]; recipients != "" {
		result.Recipients = strings.Split(recipients, ",")
	}
	if result.SecretTTL, err = metadata.SecretTTL(ctx); err != nil {
		return nil, err
	}
	if result.CreatedAt, err = metadata.record.CreatedAt(ctx); err != nil {
		return nil, err
	}
	if result.ViewedAt, err = metadata.ViewedAt(ctx); err != nil {
		return nil, err
	}
	if result.ReceivedAt, err = metadata.ReceivedAt(ctx); err != nil {
		return nil, err
	}
	if result.BurnedAt, err = metadata.BurnedAt(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	if ttl > s.maxTTL {
		return s.maxTTL
	}
	return ttl
}
