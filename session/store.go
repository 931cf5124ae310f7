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

package session

import (
	"context"
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/session/log"
	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/redis/go-redis/v9"
)

// Store creates, loads and enumerates sessions.
type Store struct {
	client redis.UniversalClient
	index  *storage.Index
	ttl    time.Duration
}

// NewStore creates a session store on the given client.
func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: client,
		index:  storage.NewIndex(client, namespace, indexRetention),
		ttl:    ttl,
	}
}

// New constructs an in-memory session without an identifier. It cannot be
// persisted until Create assigns one, and is never discoverable by the index.
func (s *Store) New(ipAddress string, customerID string, userAgent string) *Session {
	return &Session{
		record:     storage.NewRecord(s.client, namespace, "", storage.WithDefaultTTL(s.ttl)),
		ipAddress:  ipAddress,
		customerID: customerID,
		userAgent:  userAgent,
	}
}

// Create allocates a fresh identifier, persists the session and registers it
// in the index.
func (s *Store) Create(ctx context.Context, ipAddress string, customerID string, userAgent string) (*Session, error) {
	sess := s.New(ipAddress, customerID, userAgent)
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	sess.record.SetIdentifier(id)

	err = sess.update(ctx, map[string]string{
		fieldIPAddress:  ipAddress,
		fieldCustomerID: customerID,
		fieldUserAgent:  userAgent,
	})
	if err != nil {
		return nil, err
	}
	if err := s.register(ctx, sess); err != nil {
		return nil, err
	}
	log.Logger().
		WithField(core.LogFieldSessionID, sess.ShortID()).
		Debug("Created new session")
	return sess, nil
}

// Exists reports whether a session with the given identifier is live.
func (s *Store) Exists(ctx context.Context, identifier string) (bool, error) {
	record := storage.NewRecord(s.client, namespace, identifier)
	return record.Exists(ctx)
}

// Load returns the session for the given identifier, or storage.ErrNotFound.
// A hit re-registers the session in the index.
func (s *Store) Load(ctx context.Context, identifier string) (*Session, error) {
	sess := &Session{
		record: storage.NewRecord(s.client, namespace, identifier, storage.WithDefaultTTL(s.ttl)),
	}
	exists, err := sess.record.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}
	if err := s.register(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// All returns every indexed live session, newest first. Identifiers whose
// record has expired are skipped.
func (s *Store) All(ctx context.Context) ([]*Session, error) {
	identifiers, err := s.index.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, identifiers)
}

// Recent returns sessions whose last registration falls within the duration,
// newest first.
func (s *Store) Recent(ctx context.Context, duration time.Duration) ([]*Session, error) {
	identifiers, err := s.index.Recent(ctx, duration)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, identifiers)
}

func (s *Store) load(ctx context.Context, identifiers []string) ([]*Session, error) {
	result := make([]*Session, 0, len(identifiers))
	for _, identifier := range identifiers {
		sess, err := s.Load(ctx, identifier)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	return result, nil
}

func (s *Store) register(ctx context.Context, sess *Session) error {
	return s.index.Add(ctx, sess.Identifier(), time.Now())
}

// Config holds the configuration for the sessions engine.
type Config struct {
	// TTLSeconds is the session lifetime.
	TTLSeconds int `koanf:"ttlseconds"`
}

// DefaultConfig returns the default configuration for the sessions engine.
func DefaultConfig() Config {
	return Config{TTLSeconds: int(DefaultTTL / time.Second)}
}

// Engine configures and owns the session store.
type Engine struct {
	config  Config
	storage *storage.Engine

	instance *Store
}

// NewEngine creates the sessions engine on top of the storage engine.
func NewEngine(storageEngine *storage.Engine) *Engine {
	return &Engine{
		config:  DefaultConfig(),
		storage: storageEngine,
	}
}

func (e *Engine) Name() string {
	return "Sessions"
}

func (e *Engine) ConfigKey() string {
	return "sessions"
}

func (e *Engine) Config() interface{} {
	return &e.config
}

func (e *Engine) Configure(_ core.ServerConfig) error {
	e.instance = NewStore(e.storage.Client(), time.Duration(e.config.TTLSeconds)*time.Second)
	return nil
}

// Store returns the configured session store. Only valid after Configure.
func (e *Engine) Store() *Store {
	return e.instance
}
