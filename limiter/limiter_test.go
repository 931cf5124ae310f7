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
	"context"
	"testing"
	"time"

	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIdentifier = "3fa9x7k2"

func TestLimiter_Charge(t *testing.T) {
	ctx := context.Background()
	ceilings := NewCeilings(map[string]int64{"destroy_account": 5}, DefaultCeiling)

	t.Run("counts up to the ceiling, then errors on every call", func(t *testing.T) {
		client, _ := storage.NewTestClient(t)
		instance := New(client, DefaultWindow, ceilings)

		for i := int64(1); i <= 5; i++ {
			count, err := instance.Charge(ctx, testIdentifier, "destroy_account")
			require.NoError(t, err)
			assert.Equal(t, i, count)
		}

		count, err := instance.Charge(ctx, testIdentifier, "destroy_account")
		assert.Equal(t, int64(6), count)
		require.ErrorIs(t, err, ErrLimitExceeded)
		var exceeded ExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, testIdentifier, exceeded.Identifier)
		assert.Equal(t, "destroy_account", exceeded.Event)
		assert.Equal(t, int64(6), exceeded.Count)

		// still exceeded on the next call
		_, err = instance.Charge(ctx, testIdentifier, "destroy_account")
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})
	t.Run("unregistered events use the default ceiling", func(t *testing.T) {
		client, _ := storage.NewTestClient(t)
		instance := New(client, DefaultWindow, ceilings)

		for i := int64(1); i <= DefaultCeiling; i++ {
			_, err := instance.Charge(ctx, testIdentifier, "send_feedback")
			require.NoError(t, err)
		}
		_, err := instance.Charge(ctx, testIdentifier, "send_feedback")
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})
	t.Run("identifiers count independently", func(t *testing.T) {
		client, _ := storage.NewTestClient(t)
		instance := New(client, DefaultWindow, ceilings)

		_, err := instance.Charge(ctx, "first", "destroy_account")
		require.NoError(t, err)
		count, err := instance.Charge(ctx, "second", "destroy_account")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
	t.Run("window roll-over starts a fresh counter", func(t *testing.T) {
		client, _ := storage.NewTestClient(t)
		instance := New(client, DefaultWindow, ceilings)
		defer func() { nowFunc = time.Now }()

		nowFunc = func() time.Time { return time.Unix(1_000_000, 0) }
		for i := 0; i < 6; i++ {
			_, _ = instance.Charge(ctx, testIdentifier, "destroy_account")
		}
		_, err := instance.Charge(ctx, testIdentifier, "destroy_account")
		require.ErrorIs(t, err, ErrLimitExceeded)

		nowFunc = func() time.Time { return time.Unix(1_000_000, 0).Add(DefaultWindow) }
		count, err := instance.Charge(ctx, testIdentifier, "destroy_account")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
	t.Run("idle counters expire after one window", func(t *testing.T) {
		client, server := storage.NewTestClient(t)
		instance := New(client, DefaultWindow, ceilings)

		_, err := instance.Charge(ctx, testIdentifier, "destroy_account")
		require.NoError(t, err)

		server.FastForward(DefaultWindow + time.Minute)
		keys := server.Keys()
		assert.Empty(t, keys)
	})
}

func TestLimiter_Clear(t *testing.T) {
	ctx := context.Background()
	client, _ := storage.NewTestClient(t)
	instance := New(client, DefaultWindow, NewCeilings(map[string]int64{"failed_passphrase": 2}, DefaultCeiling))

	for i := 0; i < 3; i++ {
		_, _ = instance.Charge(ctx, testIdentifier, "failed_passphrase")
	}
	_, err := instance.Charge(ctx, testIdentifier, "failed_passphrase")
	require.ErrorIs(t, err, ErrLimitExceeded)

	require.NoError(t, instance.Clear(ctx, testIdentifier, "failed_passphrase"))

	count, err := instance.Charge(ctx, testIdentifier, "failed_passphrase")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCeilings(t *testing.T) {
	source := map[string]int64{"create_secret": 100}
	ceilings := NewCeilings(source, 10)

	// mutating the source map must not affect the table
	source["create_secret"] = 1

	assert.Equal(t, int64(100), ceilings.Ceiling("create_secret"))
	assert.Equal(t, int64(10), ceilings.Ceiling("unknown_event"))
}
