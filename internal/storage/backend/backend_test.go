package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"maika/internal/storage"
)

func TestOpenDrivers(t *testing.T) {
	for _, tc := range []struct {
		driver string
		file   string
	}{
		{DriverJSON, "store.json"},
		{DriverSQLite, "store.db"},
	} {
		t.Run(tc.driver, func(t *testing.T) {
			s, err := Open(tc.driver, filepath.Join(t.TempDir(), tc.file), zerolog.Nop())
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.InsertGuild(context.Background(), storage.NewGuildRecord("g1", "m!")))
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("rethinkdb", filepath.Join(t.TempDir(), "x"), zerolog.Nop())
	require.Error(t, err)
}
