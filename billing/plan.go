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

package billing

import (
	"strings"
	"time"
)

// AnonymousPlanID is the plan applied to clients without an account.
const AnonymousPlanID = "anonymous"

// Plan describes what a customer on it may do. Plans are value types; the
// catalog they live in is built once at startup and never changes afterwards.
type Plan struct {
	PlanID   string
	Price    float64
	Discount float64
	Options  PlanOptions
}

// PlanOptions are the per-plan product limits.
type PlanOptions struct {
	// Name is the display name.
	Name string
	// TTL is the longest lifetime a share on this plan may request.
	TTL time.Duration
	// Size is the largest payload in bytes a share on this plan may carry.
	Size int64
	// API grants access to the programmatic interface.
	API bool
	// CustomDomains grants serving shares from customer-owned domains.
	CustomDomains bool
}

// CalculatedPrice is the price after the discount.
func (p Plan) CalculatedPrice() float64 {
	return p.Price * (1 - p.Discount)
}

// Paid reports whether the plan costs anything after discount.
func (p Plan) Paid() bool {
	return p.CalculatedPrice() > 0
}

// Catalog is the immutable plan table.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog builds a catalog from the given plans. Plan ids are matched
// case-insensitively.
func NewCatalog(plans ...Plan) Catalog {
	table := make(map[string]Plan, len(plans))
	for _, plan := range plans {
		table[normalizePlanID(plan.PlanID)] = plan
	}
	return Catalog{plans: table}
}

// Plan returns the plan with the given id. Unknown ids fall back to the
// anonymous plan: a stale or mistyped plan id must never grant more than the
// baseline.
func (c Catalog) Plan(planID string) Plan {
	if plan, ok := c.plans[normalizePlanID(planID)]; ok {
		return plan
	}
	return c.plans[AnonymousPlanID]
}

// Known reports whether the id names a plan in the catalog.
func (c Catalog) Known(planID string) bool {
	_, ok := c.plans[normalizePlanID(planID)]
	return ok
}

func normalizePlanID(planID string) string {
	return strings.ToLower(strings.TrimSpace(planID))
}

// DefaultCatalog returns the built-in plan table.
func DefaultCatalog() Catalog {
	return NewCatalog(
		Plan{
			PlanID: AnonymousPlanID,
			Options: PlanOptions{
				Name: "Anonymous",
				TTL:  7 * 24 * time.Hour,
				Size: 100_000,
			},
		},
		Plan{
			PlanID: "personal_v2",
			Price:  5,
			Options: PlanOptions{
				Name: "Personal",
				TTL:  14 * 24 * time.Hour,
				Size: 1_000_000,
				API:  true,
			},
		},
		Plan{
			PlanID:   "professional_v1",
			Price:    30,
			Discount: 0.33,
			Options: PlanOptions{
				Name:          "Professional",
				TTL:           30 * 24 * time.Hour,
				Size:          1_000_000,
				API:           true,
				CustomDomains: true,
			},
		},
		Plan{
			PlanID: "agency_v1",
			Price:  75,
			Options: PlanOptions{
				Name:          "Agency",
				TTL:           30 * 24 * time.Hour,
				Size:          10_000_000,
				API:           true,
				CustomDomains: true,
			},
		},
	)
}
