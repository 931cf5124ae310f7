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
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var createdTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: core.MetricsPrefix + "secrets_created_total",
	Help: "Number of shares created.",
})

var revealedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: core.MetricsPrefix + "secrets_revealed_total",
	Help: "Number of secrets revealed to a recipient.",
})

var burnedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: core.MetricsPrefix + "secrets_burned_total",
	Help: "Number of shares burned by their owner.",
})

var passphraseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: core.MetricsPrefix + "secrets_passphrase_failures_total",
	Help: "Number of reveal attempts rejected on a passphrase mismatch.",
})
