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

package logic

import (
	"context"

	"github.com/bitrixdevelop/onetimesecret/billing"
	"github.com/bitrixdevelop/onetimesecret/core"
)

// RecordWebhookEvent files a payment provider delivery in the ledger.
// Webhook calls are server-to-server and authenticated by the provider's
// signature upstream, so no rate limiter charge applies here.
type RecordWebhookEvent struct {
	operation
	deps Deps

	eventID    string
	customerID string
	eventType  string
	payload    string
}

// NewRecordWebhookEvent prepares the operation.
func NewRecordWebhookEvent(deps Deps, eventID string, customerID string, eventType string, payload string) *RecordWebhookEvent {
	return &RecordWebhookEvent{
		operation:  newOperation(),
		deps:       deps,
		eventID:    eventID,
		customerID: customerID,
		eventType:  eventType,
		payload:    payload,
	}
}

// RaiseConcerns validates the delivery.
func (l *RecordWebhookEvent) RaiseConcerns(_ context.Context) error {
	var problems []Problem
	if l.eventID == "" {
		problems = append(problems, Problem{Field: "event_id", Message: "cannot be empty"})
	}
	if l.eventType == "" {
		problems = append(problems, Problem{Field: "event_type", Message: "cannot be empty"})
	}
	return l.conclude(problems)
}

// Process records the delivery. A duplicate event id surfaces as
// ErrAlreadyExists so the caller acknowledges without reprocessing.
func (l *RecordWebhookEvent) Process(ctx context.Context) (*billing.Event, error) {
	if err := l.checkGreenlight(); err != nil {
		return nil, err
	}
	event, err := l.deps.Ledger.Record(ctx, l.eventID, l.customerID, l.eventType, l.payload)
	if err != nil {
		return nil, err
	}
	l.logger().
		WithField(core.LogFieldWebhookEventID, l.eventID).
		Debug("Recorded webhook event")
	return event, nil
}
