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
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/storage/log"
	"github.com/redis/go-redis/v9"
)

// KindObject is the kind qualifier of a record's primary hash.
const KindObject = "object"

const (
	// FieldCreated holds the unix timestamp (seconds) of the first successful write.
	FieldCreated = "created"
	// FieldUpdated holds the unix timestamp (seconds) of the last write.
	FieldUpdated = "updated"
)

// nowFunc can be swapped in tests to control record timestamps.
var nowFunc = time.Now

// Key builds a composite record key from its parts.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Record is a generic keyed entity persisted as a field map with a TTL.
// All other entities (sessions, secrets, metadata, webhook events) are built on it.
//
// Reads consult a per-instance local cache first; a cache miss fetches the full
// field map and replaces the cache wholesale, never merging partially. Writes go
// through to the store and merge the written fields into the cache, but do not
// round-trip server state; callers needing exact values must Refresh explicitly.
// The cache must be treated as potentially stale after any externally visible
// mutation on the same key.
type Record struct {
	client     redis.UniversalClient
	namespace  string
	identifier string
	kind       string
	defaultTTL time.Duration
	cache      map[string]string
}

// RecordOption configures a Record on construction.
type RecordOption func(*Record)

// WithKind overrides the record's kind qualifier (defaults to KindObject).
func WithKind(kind string) RecordOption {
	return func(r *Record) {
		r.kind = kind
	}
}

// WithDefaultTTL sets the TTL armed on the record's first write.
func WithDefaultTTL(ttl time.Duration) RecordOption {
	return func(r *Record) {
		r.defaultTTL = ttl
	}
}

// NewRecord constructs an in-memory record. Nothing is persisted until the first
// write, and a record without an identifier cannot be written at all.
func NewRecord(client redis.UniversalClient, namespace string, identifier string, opts ...RecordOption) *Record {
	result := &Record{
		client:     client,
		namespace:  namespace,
		identifier: identifier,
		kind:       KindObject,
		cache:      map[string]string{},
	}
	for _, opt := range opts {
		opt(result)
	}
	return result
}

// Key returns the composite key this record is stored under: {namespace}:{identifier}:{kind}.
func (r *Record) Key() string {
	return Key(r.namespace, r.identifier, r.kind)
}

// Identifier returns the record's identifier, empty when the record was never assigned one.
func (r *Record) Identifier() string {
	return r.identifier
}

// SetIdentifier assigns a new identifier. The cache is dropped since it mirrors the old key.
func (r *Record) SetIdentifier(identifier string) {
	r.identifier = identifier
	r.cache = map[string]string{}
}

func (r *Record) checkIdentifier() error {
	if r.identifier == "" {
		return ErrInvalidState
	}
	return nil
}

// Exists reports whether the record is present in the store.
func (r *Record) Exists(ctx context.Context) (bool, error) {
	if r.identifier == "" {
		return false, nil
	}
	count, err := r.client.Exists(ctx, r.Key()).Result()
	if err != nil {
		return false, transportError(err)
	}
	return count > 0, nil
}

// Save persists the record, writing only the bookkeeping fields.
// Most callers use Update with their field map instead.
func (r *Record) Save(ctx context.Context) error {
	return r.Update(ctx, nil)
}

// Update writes the given fields plus a refreshed `updated` timestamp (and `created`
// on the first write) and arms the default TTL when the key has none yet.
// Fails with ErrInvalidState when the record has no identifier.
func (r *Record) Update(ctx context.Context, fields map[string]string) error {
	if err := r.checkIdentifier(); err != nil {
		return err
	}

	now := strconv.FormatInt(nowFunc().Unix(), 10)
	toWrite := map[string]string{}
	for field, value := range fields {
		toWrite[field] = value
	}
	toWrite[FieldUpdated] = now
	// Check the store, not the cache: an expired key must get a fresh `created`.
	hasCreated, err := r.client.HExists(ctx, r.Key(), FieldCreated).Result()
	if err != nil {
		return transportError(err)
	}
	if !hasCreated {
		toWrite[FieldCreated] = now
	}

	if err := r.client.HSet(ctx, r.Key(), toWrite).Err(); err != nil {
		return transportError(err)
	}
	if err := r.armDefaultTTL(ctx); err != nil {
		return err
	}

	// Merge the caller's fields into the cache; timestamps are left to an explicit Refresh.
	for field, value := range fields {
		r.cache[field] = value
	}
	return nil
}

func (r *Record) armDefaultTTL(ctx context.Context) error {
	if r.defaultTTL <= 0 {
		return nil
	}
	remaining, err := r.client.TTL(ctx, r.Key()).Result()
	if err != nil {
		return transportError(err)
	}
	// go-redis reports "no expiration" as -1 and "no key" as -2
	if remaining < 0 {
		if err := r.client.Expire(ctx, r.Key(), r.defaultTTL).Err(); err != nil {
			return transportError(err)
		}
	}
	return nil
}

// Get returns a field value, consulting the cache first. A cache miss refreshes
// the whole cache from the store. Absent fields read as the empty string.
func (r *Record) Get(ctx context.Context, field string) (string, error) {
	if value, ok := r.cache[field]; ok {
		return value, nil
	}
	if err := r.Refresh(ctx); err != nil {
		return "", err
	}
	return r.cache[field], nil
}

// Fetch reads a field straight from the store, bypassing and not touching the cache.
func (r *Record) Fetch(ctx context.Context, field string) (string, error) {
	value, err := r.client.HGet(ctx, r.Key(), field).Result()
	if err != nil {
		return "", transportError(err)
	}
	return value, nil
}

// Set writes a single field. Unlike Update it does not touch the timestamps.
func (r *Record) Set(ctx context.Context, field string, value string) error {
	if err := r.checkIdentifier(); err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.Key(), field, value).Err(); err != nil {
		return transportError(err)
	}
	r.cache[field] = value
	return nil
}

// Del removes a single field and returns its prior value.
func (r *Record) Del(ctx context.Context, field string) (string, error) {
	if err := r.checkIdentifier(); err != nil {
		return "", err
	}
	value, err := r.Fetch(ctx, field)
	if err != nil {
		return "", err
	}
	if err := r.client.HDel(ctx, r.Key(), field).Err(); err != nil {
		return "", transportError(err)
	}
	delete(r.cache, field)
	return value, nil
}

// Has reports whether a field is present, consulting the cache first.
func (r *Record) Has(ctx context.Context, field string) (bool, error) {
	if _, ok := r.cache[field]; ok {
		return true, nil
	}
	present, err := r.client.HExists(ctx, r.Key(), field).Result()
	if err != nil {
		return false, transportError(err)
	}
	return present, nil
}

// Fields returns the full field map, replacing the cache wholesale.
func (r *Record) Fields(ctx context.Context) (map[string]string, error) {
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	result := map[string]string{}
	for field, value := range r.cache {
		result[field] = value
	}
	return result, nil
}

// Refresh replaces the cache with the full field map from the store.
// A partial merge would risk serving a stale mixed view, so the map is swapped in one go.
func (r *Record) Refresh(ctx context.Context) error {
	if r.identifier == "" {
		return nil
	}
	values, err := r.client.HGetAll(ctx, r.Key()).Result()
	if err != nil {
		return transportError(err)
	}
	r.cache = values
	return nil
}

// Destroy removes the record and cancels its TTL. Destroying an absent record is a no-op.
func (r *Record) Destroy(ctx context.Context) error {
	if r.identifier == "" {
		return nil
	}
	if err := r.client.Del(ctx, r.Key()).Err(); err != nil {
		return transportError(err)
	}
	r.cache = map[string]string{}
	log.Logger().
		WithField(core.LogFieldNamespace, r.namespace).
		WithField(core.LogFieldKey, ShortIdentifier(r.identifier)).
		Trace("Destroyed record")
	return nil
}

// TTL returns the remaining time-to-live, 0 once expired or absent.
func (r *Record) TTL(ctx context.Context) (time.Duration, error) {
	remaining, err := r.client.TTL(ctx, r.Key()).Result()
	if err != nil {
		return 0, transportError(err)
	}
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// SetTTL overrides the remaining time-to-live.
func (r *Record) SetTTL(ctx context.Context, ttl time.Duration) error {
	if err := r.checkIdentifier(); err != nil {
		return err
	}
	if err := r.client.Expire(ctx, r.Key(), ttl).Err(); err != nil {
		return transportError(err)
	}
	return nil
}

// Rename moves the record to a new identifier, carrying all fields and TTL along.
// When the old key does not exist only the in-memory identifier changes.
// The cache is dropped in both cases: it mirrors the retired key.
func (r *Record) Rename(ctx context.Context, newIdentifier string) error {
	if err := r.checkIdentifier(); err != nil {
		return err
	}
	exists, err := r.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		oldKey := r.Key()
		newKey := Key(r.namespace, newIdentifier, r.kind)
		if err := r.client.Rename(ctx, oldKey, newKey).Err(); err != nil {
			return transportError(err)
		}
	}
	r.SetIdentifier(newIdentifier)
	return nil
}

// Touch refreshes the `updated` timestamp without writing any other field.
func (r *Record) Touch(ctx context.Context) error {
	if err := r.checkIdentifier(); err != nil {
		return err
	}
	return r.Set(ctx, FieldUpdated, strconv.FormatInt(nowFunc().Unix(), 10))
}

// CreatedAt returns the time of the first successful write, zero when never written.
func (r *Record) CreatedAt(ctx context.Context) (time.Time, error) {
	return r.timeField(ctx, FieldCreated)
}

// UpdatedAt returns the time of the last write, zero when never written.
func (r *Record) UpdatedAt(ctx context.Context) (time.Time, error) {
	return r.timeField(ctx, FieldUpdated)
}

func (r *Record) timeField(ctx context.Context, field string) (time.Time, error) {
	value, err := r.Get(ctx, field)
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(seconds, 0), nil
}
