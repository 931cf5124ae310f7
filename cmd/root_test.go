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

package cmd

import (
	"bytes"
	"testing"

	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSystem(t *testing.T) {
	system := CreateSystem()

	var names []string
	system.VisitEngines(func(engine core.Engine) {
		if named, ok := engine.(core.Named); ok {
			names = append(names, named.Name())
		}
	})

	assert.Equal(t, []string{"Status", "Metrics", "Storage", "RateLimiter", "Sessions", "Secrets", "Billing", "Logic"}, names)
}

func TestConfigCommand(t *testing.T) {
	system := CreateSystem()
	command := CreateCommand(system)
	buf := new(bytes.Buffer)
	command.SetOut(buf)
	command.SetArgs([]string{"config"})

	require.NoError(t, system.Load(command.PersistentFlags()))
	require.NoError(t, command.Execute())

	assert.Contains(t, buf.String(), "Current system config")
	assert.Contains(t, buf.String(), "verbosity")
}

func TestServerConfigDefaults(t *testing.T) {
	system := CreateSystem()
	command := CreateCommand(system)

	require.NoError(t, system.Load(command.PersistentFlags()))

	assert.Equal(t, "info", system.Config.Verbosity)
	assert.Equal(t, ":1323", system.Config.HTTP.Address)
	assert.False(t, system.Config.Strictmode)
}
