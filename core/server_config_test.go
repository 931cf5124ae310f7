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
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConfig_Load(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewServerConfig()

		require.NoError(t, cfg.Load(FlagSet()))

		assert.Equal(t, "info", cfg.Verbosity)
		assert.Equal(t, "text", cfg.LoggerFormat)
		assert.Equal(t, ":1323", cfg.HTTP.Address)
		assert.False(t, cfg.Strictmode)
	})
	t.Run("a config file overrides the defaults", func(t *testing.T) {
		configFile := path.Join(t.TempDir(), "ots.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("verbosity: debug\nhttp:\n  address: localhost:9999\n"), 0600))
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--configfile", configFile}))

		cfg := NewServerConfig()
		require.NoError(t, cfg.Load(flags))

		assert.Equal(t, "debug", cfg.Verbosity)
		assert.Equal(t, "localhost:9999", cfg.HTTP.Address)
	})
	t.Run("environment overrides the config file", func(t *testing.T) {
		t.Setenv("OTS_VERBOSITY", "warn")

		cfg := NewServerConfig()
		require.NoError(t, cfg.Load(FlagSet()))

		assert.Equal(t, "warn", cfg.Verbosity)
	})
	t.Run("a missing config file is not an error", func(t *testing.T) {
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--configfile", "/does/not/exist.yaml"}))

		cfg := NewServerConfig()
		assert.NoError(t, cfg.Load(flags))
	})
	t.Run("an invalid log level is an error", func(t *testing.T) {
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--verbosity", "ludicrous"}))

		cfg := NewServerConfig()
		assert.Error(t, cfg.Load(flags))
	})
	t.Run("an invalid logger format is an error", func(t *testing.T) {
		flags := FlagSet()
		require.NoError(t, flags.Parse([]string{"--loggerformat", "xml"}))

		cfg := NewServerConfig()
		assert.EqualError(t, cfg.Load(flags), "invalid formatter: 'xml'")
	})
}

func TestServerConfig_InjectIntoEngine(t *testing.T) {
	t.Setenv("OTS_TESTENGINE_VALUE", "overridden")

	cfg := NewServerConfig()
	require.NoError(t, cfg.Load(FlagSet()))

	engine := &testInjectable{config: testConfig{Value: "default"}}
	require.NoError(t, cfg.InjectIntoEngine(engine))

	assert.Equal(t, "overridden", engine.config.Value)
}

type testConfig struct {
	Value string `koanf:"value"`
}

type testInjectable struct {
	config testConfig
}

func (e *testInjectable) Name() string        { return "TestEngine" }
func (e *testInjectable) ConfigKey() string   { return "testengine" }
func (e *testInjectable) Config() interface{} { return &e.config }
