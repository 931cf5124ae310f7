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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	ctx := context.Background()
	defer func() { nowFunc = time.Now }()
	now := time.Unix(1_000_000, 0)
	nowFunc = func() time.Time { return now }

	t.Run("All returns newest first", func(t *testing.T) {
		client, _ := NewTestClient(t)
		index := NewIndex(client, "session", 48*time.Hour)

		require.NoError(t, index.Add(ctx, "old", now.Add(-2*time.Hour)))
		require.NoError(t, index.Add(ctx, "new", now))
		require.NoError(t, index.Add(ctx, "middle", now.Add(-time.Hour)))

		members, err := index.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "middle", "old"}, members)
	})
	t.Run("Add prunes entries beyond retention", func(t *testing.T) {
		client, _ := NewTestClient(t)
		index := NewIndex(client, "session", 48*time.Hour)

		require.NoError(t, index.Add(ctx, "stale", now.Add(-72*time.Hour)))
		require.NoError(t, index.Add(ctx, "fresh", now))

		members, err := index.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"fresh"}, members)
	})
	t.Run("Recent honors the duration window", func(t *testing.T) {
		client, _ := NewTestClient(t)
		index := NewIndex(client, "session", 48*time.Hour)

		require.NoError(t, index.Add(ctx, "yesterday", now.Add(-24*time.Hour)))
		require.NoError(t, index.Add(ctx, "just-now", now))

		members, err := index.Recent(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, []string{"just-now"}, members)
	})
	t.Run("Remove drops the identifier", func(t *testing.T) {
		client, _ := NewTestClient(t)
		index := NewIndex(client, "session", 48*time.Hour)

		require.NoError(t, index.Add(ctx, "one", now))
		require.NoError(t, index.Remove(ctx, "one"))

		members, err := index.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}
