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

// Package billing records payment provider webhook deliveries and the plan
// catalog. The webhook ledger exists to deduplicate deliveries: providers
// retry, and a retried event must not be processed twice.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/bitrixdevelop/onetimesecret/billing/log"
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/redis/go-redis/v9"
)

const namespace = "webhook_event"

// DefaultEventTTL is how long a recorded delivery stays deduplicable.
const DefaultEventTTL = 30 * 24 * time.Hour

// indexRetention bounds how long event ids stay enumerable in the ledger index.
const indexRetention = 48 * time.Hour

const (
	fieldEventID    = "event_id"
	fieldCustomerID = "custid"
	fieldEventType  = "event_type"
	fieldPayload    = "payload"
)

// Event is a single recorded webhook delivery.
type Event struct {
	record *storage.Record
}

// EventID returns the provider-assigned event id.
func (e *Event) EventID() string {
	return e.record.Identifier()
}

// CustomerID returns the customer the delivery concerns.
func (e *Event) CustomerID(ctx context.Context) (string, error) {
	return e.record.Get(ctx, fieldCustomerID)
}

// EventType returns the provider's event type, e.g. "invoice.paid".
func (e *Event) EventType(ctx context.Context) (string, error) {
	return e.record.Get(ctx, fieldEventType)
}

// Payload returns the raw delivery payload.
func (e *Event) Payload(ctx context.Context) (string, error) {
	return e.record.Get(ctx, fieldPayload)
}

// CreatedAt returns when the delivery was recorded.
func (e *Event) CreatedAt(ctx context.Context) (time.Time, error) {
	return e.record.CreatedAt(ctx)
}

// Ledger stores webhook deliveries keyed by their provider event id.
type Ledger struct {
	client redis.UniversalClient
	index  *storage.Index
	ttl    time.Duration
}

// NewLedger creates a ledger on the given store client.
func NewLedger(client redis.UniversalClient, ttl time.Duration) *Ledger {
	return &Ledger{
		client: client,
		index:  storage.NewIndex(client, namespace, indexRetention),
		ttl:    ttl,
	}
}

func (l *Ledger) newEvent(eventID string) *Event {
	opts := []storage.RecordOption{}
	if l.ttl > 0 {
		opts = append(opts, storage.WithDefaultTTL(l.ttl))
	}
	return &Event{record: storage.NewRecord(l.client, namespace, eventID, opts...)}
}

// Record stores a delivery. Recording an event id that is already present
// returns ErrAlreadyExists and changes nothing; the caller treats that as
// "already processed" and acknowledges the delivery without acting on it.
func (l *Ledger) Record(ctx context.Context, eventID string, customerID string, eventType string, payload string) (*Event, error) {
	if eventID == "" {
		return nil, storage.ErrInvalidState
	}
	event := l.newEvent(eventID)
	exists, err := event.record.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, storage.ErrAlreadyExists
	}
	err = event.record.Update(ctx, map[string]string{
		fieldEventID:    eventID,
		fieldCustomerID: customerID,
		fieldEventType:  eventType,
		fieldPayload:    payload,
	})
	if err != nil {
		return nil, err
	}
	if err := l.index.Add(ctx, eventID, time.Now()); err != nil {
		return nil, err
	}
	log.Logger().
		WithField(core.LogFieldWebhookEventID, eventID).
		WithField(core.LogFieldCustomerID, customerID).
		WithField(core.LogFieldEvent, eventType).
		Debug("Recorded webhook event")
	return event, nil
}

// Exists reports whether a delivery with the given event id was recorded.
func (l *Ledger) Exists(ctx context.Context, eventID string) (bool, error) {
	return l.newEvent(eventID).record.Exists(ctx)
}

// Load returns a recorded delivery, ErrNotFound when it is absent or expired.
func (l *Ledger) Load(ctx context.Context, eventID string) (*Event, error) {
	event := l.newEvent(eventID)
	exists, err := event.record.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNotFound
	}
	return event, nil
}

// Destroy removes a delivery from the ledger and its index entry, so the
// event id can be recorded again. Used when processing failed after the
// record was written and the provider should retry.
func (l *Ledger) Destroy(ctx context.Context, eventID string) error {
	event := l.newEvent(eventID)
	if err := event.record.Destroy(ctx); err != nil {
		return err
	}
	return l.index.Remove(ctx, eventID)
}

// All returns the recorded deliveries still in the index, newest first.
// Deliveries whose record expired are skipped.
func (l *Ledger) All(ctx context.Context) ([]*Event, error) {
	ids, err := l.index.All(ctx)
	if err != nil {
		return nil, err
	}
	return l.load(ctx, ids)
}

// Recent returns the deliveries recorded within the given duration, newest first.
func (l *Ledger) Recent(ctx context.Context, duration time.Duration) ([]*Event, error) {
	ids, err := l.index.Recent(ctx, duration)
	if err != nil {
		return nil, err
	}
	return l.load(ctx, ids)
}

func (l *Ledger) load(ctx context.Context, eventIDs []string) ([]*Event, error) {
	events := make([]*Event, 0, len(eventIDs))
	for _, id := range eventIDs {
		event, err := l.Load(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
