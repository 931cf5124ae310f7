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

// Package limiter throttles abusive client identifiers per event type using
// fixed-window counters in the backing store.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/limiter/log"
	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/redis/go-redis/v9"
)

const namespace = "limiter"

// DefaultWindow is the size of the counting window. All calls within the same
// window share one counter, and an idle counter expires one window after its
// last increment.
const DefaultWindow = 20 * time.Minute

// DefaultCeiling applies to events without a registered ceiling.
const DefaultCeiling = int64(25)

// ErrLimitExceeded is the sentinel all ExceededError values match with errors.Is.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// ExceededError signals that an identifier pushed an event counter past its
// ceiling. It must not be silently swallowed: identifier, event and count are
// carried for observability.
type ExceededError struct {
	Identifier string
	Event      string
	Count      int64
}

func (e ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for event '%s' (identifier=%s, count=%d)", e.Event, e.Identifier, e.Count)
}

func (e ExceededError) Is(other error) bool {
	return other == ErrLimitExceeded
}

// Ceilings is the immutable per-event ceiling table, built once at startup.
type Ceilings struct {
	events   map[string]int64
	fallback int64
}

// NewCeilings copies the given table. Events not present fall back to the default.
func NewCeilings(events map[string]int64, fallback int64) Ceilings {
	copied := make(map[string]int64, len(events))
	for event, ceiling := range events {
		copied[event] = ceiling
	}
	return Ceilings{events: copied, fallback: fallback}
}

// Ceiling returns the ceiling for the given event.
func (c Ceilings) Ceiling(event string) int64 {
	if ceiling, ok := c.events[event]; ok {
		return ceiling
	}
	return c.fallback
}

// nowFunc can be swapped in tests to control window bucketing.
var nowFunc = time.Now

// Limiter counts events per (client identifier, event name) in fixed windows.
type Limiter struct {
	client   redis.UniversalClient
	window   time.Duration
	ceilings Ceilings
}

// New creates a limiter on the given store client.
func New(client redis.UniversalClient, window time.Duration, ceilings Ceilings) *Limiter {
	return &Limiter{
		client:   client,
		window:   window,
		ceilings: ceilings,
	}
}

// Charge increments the counter for the identifier and event in the current
// window and returns the new count. The counter's TTL is re-armed on every
// increment, so an active window keeps extending while an idle one expires.
// When the count passes the event's ceiling the same call returns an
// ExceededError, as does every later call until the window rolls over or the
// counter is cleared. Callers treat this as a hard stop, not a retryable
// condition.
//
// A request at the exact window boundary lands in whichever bucket its
// truncated timestamp falls into; counts never carry over, so a client
// straddling the boundary can briefly reach twice the ceiling. Known
// property, kept deliberately.
func (l *Limiter) Charge(ctx context.Context, identifier string, event string) (int64, error) {
	key := l.bucketKey(identifier, event)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, core.WrapError(storage.ErrTransport, err)
	}
	if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
		return 0, core.WrapError(storage.ErrTransport, err)
	}

	chargesTotal.WithLabelValues(event).Inc()
	log.Logger().
		WithField(core.LogFieldEvent, event).
		WithField(core.LogFieldExternalID, identifier).
		WithField(core.LogFieldCount, count).
		Trace("Charged event")

	if count > l.ceilings.Ceiling(event) {
		exceededTotal.WithLabelValues(event).Inc()
		return count, ExceededError{Identifier: identifier, Event: event, Count: count}
	}
	return count, nil
}

// Clear resets the counter for the identifier and event in the current window,
// e.g. after a correct password following failed attempts.
func (l *Limiter) Clear(ctx context.Context, identifier string, event string) error {
	err := l.client.Del(ctx, l.bucketKey(identifier, event)).Err()
	if err != nil {
		return core.WrapError(storage.ErrTransport, err)
	}
	log.Logger().
		WithField(core.LogFieldEvent, event).
		WithField(core.LogFieldExternalID, identifier).
		Debug("Cleared event counter")
	return nil
}

// bucketKey is {namespace}:{identifier}:{event}:{window-bucket}.
func (l *Limiter) bucketKey(identifier string, event string) string {
	return storage.Key(namespace, identifier, event, l.windowStamp())
}

// windowStamp truncates the current time to the window size, rendered as HHMM (UTC).
func (l *Limiter) windowStamp() string {
	now := nowFunc().Unix()
	rounded := now - (now % int64(l.window/time.Second))
	return time.Unix(rounded, 0).UTC().Format("1504")
}
