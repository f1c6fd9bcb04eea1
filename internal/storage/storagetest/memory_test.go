package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maika/internal/storage"
)

func TestMemory(t *testing.T) {
	Run(t, func(*testing.T) storage.Store { return NewMemory() })
}

func TestFailUserUpdatesIsPerRecord(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.InsertUser(ctx, storage.NewUserRecord("a")))
	require.NoError(t, m.InsertUser(ctx, storage.NewUserRecord("b")))

	boom := errors.New("disk full")
	m.FailUserUpdates("a", boom)

	addCoin := func(u *storage.UserRecord) error { u.Coins++; return nil }
	require.ErrorIs(t, m.UpdateUser(ctx, "a", addCoin), boom)
	require.NoError(t, m.UpdateUser(ctx, "b", addCoin))

	a, err := m.User(ctx, "a")
	require.NoError(t, err, "reads still work")
	assert.Zero(t, a.Coins)

	m.FailUserUpdates("a", nil)
	require.NoError(t, m.UpdateUser(ctx, "a", addCoin))
}
