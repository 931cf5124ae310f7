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

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEngine_Diagnostics(t *testing.T) {
	system := NewSystem()
	statusEngine := NewStatusEngine(system)
	system.RegisterEngine(statusEngine)
	system.RegisterEngine(NewMetricsEngine())

	results := statusEngine.(Diagnosable).Diagnostics()

	require.Len(t, results, 1)
	assert.Equal(t, "Registered engines", results[0].Name())
	assert.Equal(t, "Status,Metrics", results[0].String())
}

func TestStatusEngine_Routes(t *testing.T) {
	system := NewSystem()
	statusEngine := NewStatusEngine(system)
	system.RegisterEngine(statusEngine)

	server := echo.New()
	statusEngine.(Routable).Routes(server)

	t.Run("status", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/status", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "OK", recorder.Body.String())
	})
	t.Run("diagnostics", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/status/diagnostics", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Registered engines")
	})
}
