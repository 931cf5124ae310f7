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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlan_CalculatedPrice(t *testing.T) {
	plan := Plan{PlanID: "professional_v1", Price: 30, Discount: 0.33}

	assert.InDelta(t, 20.1, plan.CalculatedPrice(), 0.001)
	assert.True(t, plan.Paid())
}

func TestCatalog_Plan(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("ids are matched case-insensitively", func(t *testing.T) {
		assert.Equal(t, "personal_v2", catalog.Plan("Personal_V2").PlanID)
		assert.True(t, catalog.Known(" PERSONAL_V2 "))
	})
	t.Run("unknown ids fall back to the anonymous plan", func(t *testing.T) {
		plan := catalog.Plan("enterprise_v99")

		assert.Equal(t, AnonymousPlanID, plan.PlanID)
		assert.False(t, plan.Paid())
		assert.False(t, catalog.Known("enterprise_v99"))
	})
	t.Run("the anonymous plan has no api access", func(t *testing.T) {
		plan := catalog.Plan(AnonymousPlanID)

		assert.False(t, plan.Options.API)
		assert.False(t, plan.Options.CustomDomains)
	})
}
