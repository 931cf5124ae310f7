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

package limiter

import (
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var chargesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: core.MetricsPrefix + "limiter_charges_total",
	Help: "Number of rate limiter charges, per event name.",
}, []string{"event"})

var exceededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: core.MetricsPrefix + "limiter_exceeded_total",
	Help: "Number of charges that exceeded the event's ceiling, per event name.",
}, []string{"event"})
