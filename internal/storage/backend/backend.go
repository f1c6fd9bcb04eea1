// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"fmt"

	"github.com/rs/zerolog"

	"maika/datastore"
	"maika/internal/storage"
	"maika/internal/storage/jsonstore"
	"maika/internal/storage/sqlite"
)

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver, rooted at path.
func Open(driver, path string, logger zerolog.Logger) (storage.Store, error) {
	switch driver {
	case DriverJSON, "":
		cfg := datastore.DefaultConfig(path)
		cfg.Logger = logger.With().Str("component", "datastore").Logger()
		return jsonstore.Open(cfg)
	case DriverSQLite:
		return sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
