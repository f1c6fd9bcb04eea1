package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maika/internal/storage"
	"maika/internal/storage/storagetest"
)

func openTempStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return openTempStore(t, filepath.Join(t.TempDir(), "maika.db"))
	})
}

func TestRecordsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maika.db")
	ctx := context.Background()

	s := openTempStore(t, path)
	require.NoError(t, s.InsertUser(ctx, storage.NewUserRecord("u1")))
	require.NoError(t, s.InsertGuild(ctx, storage.NewGuildRecord("g1", "m!")))
	require.NoError(t, s.UpdateUser(ctx, "u1", func(u *storage.UserRecord) error {
		u.Coins = 42
		return nil
	}))
	require.NoError(t, s.Close())

	s = openTempStore(t, path)
	defer s.Close()

	u, err := s.User(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.Coins)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{Guilds: 1, Users: 1}, stats)
}
