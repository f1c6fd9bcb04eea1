// Package storagetest holds the behavioural suite every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maika/internal/storage"
)

// Run exercises open() against the Store contract. open must return a fresh,
// empty store; Run closes it.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("GuildNotFound", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		_, err := s.Guild(context.Background(), "missing")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("GuildInsertOnce", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.InsertGuild(ctx, storage.NewGuildRecord("g1", "m!")))
		err := s.InsertGuild(ctx, storage.NewGuildRecord("g1", "other!"))
		require.ErrorIs(t, err, storage.ErrAlreadyExists)

		got, err := s.Guild(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "m!", got.Prefix)
		assert.False(t, got.Logging.Enabled)
		assert.False(t, got.Feed.Enabled)
	})

	t.Run("GuildUpdate", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.InsertGuild(ctx, storage.NewGuildRecord("g1", "m!")))
		require.NoError(t, s.UpdateGuild(ctx, "g1", func(g *storage.GuildRecord) error {
			g.Prefix = "?"
			g.ID = "hijack"
			g.Logging = storage.LoggingSettings{Enabled: true, ChannelID: "c1"}
			return nil
		}))

		got, err := s.Guild(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "g1", got.ID, "update cannot rename a record")
		assert.Equal(t, "?", got.Prefix)
		assert.Equal(t, "c1", got.Logging.ChannelID)

		err = s.UpdateGuild(ctx, "nope", func(*storage.GuildRecord) error { return nil })
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UserLifecycle", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		_, err := s.User(ctx, "u1")
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, s.InsertUser(ctx, storage.NewUserRecord("u1")))
		require.ErrorIs(t, s.InsertUser(ctx, storage.NewUserRecord("u1")), storage.ErrAlreadyExists)

		got, err := s.User(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Coins)
		assert.False(t, got.Marriage.Is)
		assert.Empty(t, got.Marriage.To)
		assert.Equal(t, storage.DefaultDescription, got.Profile.Description)

		require.NoError(t, s.UpdateUser(ctx, "u1", func(u *storage.UserRecord) error {
			u.Marriage = storage.Marriage{Is: true, To: "u2"}
			return nil
		}))
		got, err = s.User(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, storage.Marriage{Is: true, To: "u2"}, got.Marriage)
	})

	t.Run("UserUpdateErrorAborts", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.InsertUser(ctx, storage.NewUserRecord("u1")))
		boom := errors.New("boom")
		err := s.UpdateUser(ctx, "u1", func(u *storage.UserRecord) error {
			u.Coins = 99
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.User(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Coins)
	})

	t.Run("InsertRequiresID", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.Error(t, s.InsertUser(context.Background(), storage.UserRecord{}))
	})
}
