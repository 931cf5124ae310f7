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

package core

const (
	// LogFieldModule is the log field for the module name.
	LogFieldModule = "module"

	// LogFieldKey is the log field key for the composite key of a keyed record.
	LogFieldKey = "key"
	// LogFieldNamespace is the log field key for the namespace of a keyed record.
	LogFieldNamespace = "namespace"

	// LogFieldSessionID is the log field key for a (shortened) session identifier.
	LogFieldSessionID = "sessionID"
	// LogFieldCustomerID is the log field key for the owning customer of a record.
	LogFieldCustomerID = "customerID"

	// LogFieldEvent is the log field key for a rate-limited event name.
	LogFieldEvent = "event"
	// LogFieldExternalID is the log field key for the rate limiter's client identifier.
	LogFieldExternalID = "externalID"
	// LogFieldCount is the log field key for a rate limiter counter value.
	LogFieldCount = "count"

	// LogFieldSecretKey is the log field key for the (shortened) key of a secret record.
	LogFieldSecretKey = "secretKey"
	// LogFieldMetadataKey is the log field key for the (shortened) key of a metadata record.
	LogFieldMetadataKey = "metadataKey"
	// LogFieldState is the log field key for a secret lifecycle state.
	LogFieldState = "state"

	// LogFieldWebhookEventID is the log field key for the id of a webhook event in the ledger.
	LogFieldWebhookEventID = "webhookEventID"

	// LogFieldUnitOfWork is the log field key for the correlation id of a logic unit of work.
	LogFieldUnitOfWork = "unitOfWork"
)
