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

package storage

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/redis/go-redis/v9"
)

// NewTestClient returns a Redis client backed by an in-process miniredis instance.
// The miniredis handle is returned as well so tests can FastForward TTLs.
func NewTestClient(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, server
}

// NewTestEngine returns a configured and started storage engine backed by miniredis.
func NewTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	engine := New()
	engine.config.Redis.Address = server.Addr()
	if err := engine.Configure(core.ServerConfig{}); err != nil {
		t.Fatal(err)
	}
	return engine, server
}
