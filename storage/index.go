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
	"time"

	"github.com/redis/go-redis/v9"
)

// Index is a collection-scoped time-ordered set of record identifiers,
// scored by event time. Entries older than the collection's retention
// window are pruned opportunistically on every Add; staleness is bounded
// by call frequency, not by a background job.
type Index struct {
	client    redis.UniversalClient
	key       string
	retention time.Duration
}

// NewIndex creates the index for a collection. Retention is a per-collection
// constant chosen by the collection's package, not caller-supplied per call.
func NewIndex(client redis.UniversalClient, namespace string, retention time.Duration) *Index {
	return &Index{
		client:    client,
		key:       Key(namespace, "values"),
		retention: retention,
	}
}

// Add inserts or updates the score for the given identifier, then prunes
// entries that fell out of the retention window.
func (i *Index) Add(ctx context.Context, identifier string, timestamp time.Time) error {
	err := i.client.ZAdd(ctx, i.key, redis.Z{
		Score:  float64(timestamp.Unix()),
		Member: identifier,
	}).Err()
	if err != nil {
		return transportError(err)
	}
	horizon := nowFunc().Add(-i.retention).Unix()
	err = i.client.ZRemRangeByScore(ctx, i.key, "0", strconv.FormatInt(horizon, 10)).Err()
	return transportError(err)
}

// Remove drops the identifier from the index.
func (i *Index) Remove(ctx context.Context, identifier string) error {
	return transportError(i.client.ZRem(ctx, i.key, identifier).Err())
}

// All returns every live identifier, newest first.
func (i *Index) All(ctx context.Context) ([]string, error) {
	members, err := i.client.ZRevRange(ctx, i.key, 0, -1).Result()
	if err != nil {
		return nil, transportError(err)
	}
	return members, nil
}

// Recent returns identifiers whose score falls within [now-duration, now], newest first.
func (i *Index) Recent(ctx context.Context, duration time.Duration) ([]string, error) {
	now := nowFunc().Unix()
	members, err := i.client.ZRevRangeByScore(ctx, i.key, &redis.ZRangeBy{
		Min: strconv.FormatInt(now-int64(duration/time.Second), 10),
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		return nil, transportError(err)
	}
	return members, nil
}
