package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maika/internal/config"
	"maika/internal/storage"
	"maika/internal/storage/backend"
)

func seeded(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{StorageDriver: backend.DriverSQLite, StoragePath: filepath.Join(t.TempDir(), "maika.db")}

	s, err := backend.Open(cfg.StorageDriver, cfg.StoragePath, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.InsertGuild(ctx, storage.NewGuildRecord("g1", "m!")))
	require.NoError(t, s.InsertUser(ctx, storage.NewUserRecord("u1")))
	require.NoError(t, s.Close())
	return cfg
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out, cfg).Run(append([]string{"maika"}, args...))
	return out.String(), err
}

func TestGuildShowAndSetPrefix(t *testing.T) {
	cfg := seeded(t)

	out, err := runCLI(t, cfg, "guild", "show", "g1")
	require.NoError(t, err)
	var g storage.GuildRecord
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, "m!", g.Prefix)

	_, err = runCLI(t, cfg, "guild", "set-prefix", "g1", "mk.")
	require.NoError(t, err)

	out, err = runCLI(t, cfg, "--format", "yaml", "guild", "show", "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "prefix: mk.")

	_, err = runCLI(t, cfg, "guild", "set-prefix", "g1", "far-too-long-prefix")
	require.Error(t, err)

	_, err = runCLI(t, cfg, "guild", "show", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserShow(t *testing.T) {
	cfg := seeded(t)

	out, err := runCLI(t, cfg, "user", "show", "u1")
	require.NoError(t, err)
	var u storage.UserRecord
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, storage.DefaultDescription, u.Profile.Description)

	_, err = runCLI(t, cfg, "user", "show")
	require.ErrorContains(t, err, "missing user id")
}

func TestStats(t *testing.T) {
	cfg := seeded(t)

	out, err := runCLI(t, cfg, "stats")
	require.NoError(t, err)
	var st storage.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, storage.Stats{Guilds: 1, Users: 1}, st)

	jsonPath := filepath.Join(t.TempDir(), "maika.json")
	out, err = runCLI(t, cfg, "--driver", backend.DriverJSON, "--path", jsonPath, "--format", "yaml", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "guilds: 0")
	assert.Contains(t, out, "users: 0")
}

func TestPluginsListsBuiltins(t *testing.T) {
	out, err := runCLI(t, &config.Config{}, "plugins")
	require.NoError(t, err)

	var rows []pluginRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "Generic")
	assert.Contains(t, names, "Marriage")
}

func TestUnknownFormat(t *testing.T) {
	_, err := runCLI(t, &config.Config{}, "--format", "xml", "plugins")
	require.Error(t, err)
}
