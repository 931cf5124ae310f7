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
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCustomer = "tryouts"
	testPayload  = "the launch code is 0000"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	client, server := storage.NewTestClient(t)
	return NewService(client, DefaultTTL, MaxTTL), server
}

func TestService_CreateShare(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a metadata/secret pair in state new", func(t *testing.T) {
		service, _ := newTestService(t)

		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		assert.NotEqual(t, metadata.Key(), sec.Key())

		state, err := metadata.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateNew, state)
		state, err = sec.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateNew, state)

		secretKey, err := metadata.SecretKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, sec.Key(), secretKey)
		shortKey, err := metadata.SecretShortKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, sec.ShortKey(), shortKey)
		assert.Len(t, shortKey, storage.ShortIdentifierLength)
	})
	t.Run("metadata outlives the secret", func(t *testing.T) {
		service, _ := newTestService(t)

		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		secretTTL, err := sec.TTL(ctx)
		require.NoError(t, err)
		metadataTTL, err := metadata.TTL(ctx)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, secretTTL)
		assert.Equal(t, 2*time.Hour, metadataTTL)
	})
	t.Run("lifetime is defaulted and capped", func(t *testing.T) {
		service, _ := newTestService(t)

		_, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{})
		require.NoError(t, err)
		ttl, err := sec.TTL(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultTTL, ttl)

		_, sec, err = service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: MaxTTL + time.Hour})
		require.NoError(t, err)
		ttl, err = sec.TTL(ctx)
		require.NoError(t, err)
		assert.Equal(t, MaxTTL, ttl)
	})
	t.Run("anonymous shares get the anonymous owner", func(t *testing.T) {
		service, _ := newTestService(t)

		metadata, _, err := service.CreateShare(ctx, "", testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		owner, err := metadata.CustomerID(ctx)
		require.NoError(t, err)
		assert.Equal(t, AnonymousCustomerID, owner)
	})
	t.Run("recipients are recorded on the metadata", func(t *testing.T) {
		service, _ := newTestService(t)

		metadata, _, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{
			TTL:        time.Hour,
			Recipients: []string{"one@example.com", "two@example.com"},
		})
		require.NoError(t, err)

		recipients, err := metadata.Recipients(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"one@example.com", "two@example.com"}, recipients)

		receipt, err := service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)
		assert.Equal(t, []string{"one@example.com", "two@example.com"}, receipt.Recipients)
	})
	t.Run("no recipients reads back as nil", func(t *testing.T) {
		service, _ := newTestService(t)

		metadata, _, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		recipients, err := metadata.Recipients(ctx)
		require.NoError(t, err)
		assert.Nil(t, recipients)
	})
	t.Run("passphrase is stored as a hash, never in clear", func(t *testing.T) {
		service, _ := newTestService(t)

		_, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{Passphrase: "squirrel", TTL: time.Hour})
		require.NoError(t, err)

		required, err := sec.PassphraseRequired(ctx)
		require.NoError(t, err)
		assert.True(t, required)
		hash, err := sec.passphraseHash(ctx)
		require.NoError(t, err)
		assert.NotContains(t, hash, "squirrel")
	})
}

func TestService_RevealSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the exact payload exactly once", func(t *testing.T) {
		service, _ := newTestService(t)
		_, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		value, err := service.RevealSecret(ctx, sec.Key(), "")
		require.NoError(t, err)
		assert.Equal(t, testPayload, value)

		_, err = service.RevealSecret(ctx, sec.Key(), "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
	t.Run("payload is gone from the store after the reveal", func(t *testing.T) {
		service, _ := newTestService(t)
		_, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		_, err = service.RevealSecret(ctx, sec.Key(), "")
		require.NoError(t, err)

		loaded, err := service.LoadSecret(ctx, sec.Key())
		require.NoError(t, err)
		state, err := loaded.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateReceived, state)
		value, err := loaded.record.Fetch(ctx, fieldValue)
		require.NoError(t, err)
		assert.Empty(t, value)
	})
	t.Run("the receipt records the reveal", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		_, err = service.RevealSecret(ctx, sec.Key(), "")
		require.NoError(t, err)

		receipt, err := service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)
		assert.Equal(t, StateReceived, receipt.State)
		assert.Empty(t, receipt.SecretKey)
		assert.False(t, receipt.SecretAvailable)
		assert.False(t, receipt.ReceivedAt.IsZero())
	})
	t.Run("unknown key returns ErrNotFound", func(t *testing.T) {
		service, _ := newTestService(t)

		_, err := service.RevealSecret(ctx, "does-not-exist", "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
	t.Run("expired secret is indistinguishable from absent", func(t *testing.T) {
		service, server := newTestService(t)
		_, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Minute})
		require.NoError(t, err)

		server.FastForward(2 * time.Minute)

		_, err = service.RevealSecret(ctx, sec.Key(), "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestService_RevealSecret_Passphrase(t *testing.T) {
	ctx := context.Background()

	t.Run("a wrong passphrase never consumes the secret", func(t *testing.T) {
		service, _ := newTestService(t)
		_, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{Passphrase: "squirrel", TTL: time.Hour})
		require.NoError(t, err)

		_, err = service.RevealSecret(ctx, sec.Key(), "acorn")
		assert.ErrorIs(t, err, storage.ErrUnauthorized)

		value, err := service.RevealSecret(ctx, sec.Key(), "squirrel")
		require.NoError(t, err)
		assert.Equal(t, testPayload, value)
	})
	t.Run("an empty guess fails a gated secret", func(t *testing.T) {
		service, _ := newTestService(t)
		_, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{Passphrase: "squirrel", TTL: time.Hour})
		require.NoError(t, err)

		_, err = service.RevealSecret(ctx, sec.Key(), "")
		assert.ErrorIs(t, err, storage.ErrUnauthorized)
	})
}

func TestService_ShowMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("first view transitions new to viewed", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		receipt, err := service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)
		assert.Equal(t, StateViewed, receipt.State)
		assert.False(t, receipt.ViewedAt.IsZero())
		assert.Equal(t, sec.Key(), receipt.SecretKey)
		assert.True(t, receipt.SecretAvailable)
		assert.Equal(t, time.Hour, receipt.SecretTTL)

		// a second view does not restamp
		firstViewed := receipt.ViewedAt
		receipt, err = service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)
		assert.Equal(t, StateViewed, receipt.State)
		assert.Equal(t, firstViewed, receipt.ViewedAt)
	})
	t.Run("viewing does not consume the secret", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		_, err = service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)

		value, err := service.RevealSecret(ctx, sec.Key(), "")
		require.NoError(t, err)
		assert.Equal(t, testPayload, value)
	})
	t.Run("passphrase requirement stays visible after the secret expired", func(t *testing.T) {
		service, server := newTestService(t)
		metadata, _, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{Passphrase: "squirrel", TTL: time.Minute})
		require.NoError(t, err)

		server.FastForward(90 * time.Second)

		receipt, err := service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)
		assert.True(t, receipt.PassphraseRequired)
		assert.False(t, receipt.SecretAvailable)
	})
	t.Run("unknown key returns ErrNotFound", func(t *testing.T) {
		service, _ := newTestService(t)

		_, err := service.ShowMetadata(ctx, "does-not-exist")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestService_Burn(t *testing.T) {
	ctx := context.Background()

	t.Run("burning destroys the payload without revealing it", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		require.NoError(t, service.Burn(ctx, metadata.Key(), testCustomer))

		_, err = service.RevealSecret(ctx, sec.Key(), "")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		receipt, err := service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)
		assert.Equal(t, StateBurned, receipt.State)
		assert.Empty(t, receipt.SecretKey)
		assert.False(t, receipt.BurnedAt.IsZero())
	})
	t.Run("a revealed share burns as not found", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)
		_, err = service.RevealSecret(ctx, sec.Key(), "")
		require.NoError(t, err)

		err = service.Burn(ctx, metadata.Key(), testCustomer)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
	t.Run("burning twice reports not found the second time", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, _, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		require.NoError(t, service.Burn(ctx, metadata.Key(), testCustomer))
		err = service.Burn(ctx, metadata.Key(), testCustomer)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
	t.Run("a consumed secret burns as not found even under a fresh receipt", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, sec, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		// flip the secret terminal while the receipt still says new
		secretRecord := storage.NewRecord(service.client, secretNamespace, sec.Key())
		require.NoError(t, secretRecord.Set(ctx, fieldState, StateReceived))

		err = service.Burn(ctx, metadata.Key(), testCustomer)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
	t.Run("only the owner can burn an owned share", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, _, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		err = service.Burn(ctx, metadata.Key(), "someone-else")
		assert.ErrorIs(t, err, storage.ErrUnauthorized)
	})
	t.Run("anonymous shares are burnable by the metadata key holder", func(t *testing.T) {
		service, _ := newTestService(t)
		metadata, _, err := service.CreateShare(ctx, "", testPayload, ShareOptions{TTL: time.Hour})
		require.NoError(t, err)

		assert.NoError(t, service.Burn(ctx, metadata.Key(), "anyone"))
	})
	t.Run("an expired secret can still be burned for the record", func(t *testing.T) {
		service, server := newTestService(t)
		metadata, _, err := service.CreateShare(ctx, testCustomer, testPayload, ShareOptions{TTL: time.Minute})
		require.NoError(t, err)

		server.FastForward(90 * time.Second)

		require.NoError(t, service.Burn(ctx, metadata.Key(), testCustomer))
		receipt, err := service.ShowMetadata(ctx, metadata.Key())
		require.NoError(t, err)
		assert.Equal(t, StateBurned, receipt.State)
	})
	t.Run("unknown key returns ErrNotFound", func(t *testing.T) {
		service, _ := newTestService(t)

		err := service.Burn(ctx, "does-not-exist", testCustomer)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
