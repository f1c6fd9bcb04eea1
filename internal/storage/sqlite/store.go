// Package sqlite provides a SQLite-backed storage.Store. Records are kept as
// JSON documents, one table per collection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"maika/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS guilds (
  id         TEXT PRIMARY KEY,
  doc        TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
  id         TEXT PRIMARY KEY,
  doc        TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);`

// Store persists guild and user documents in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var (
	_ storage.Store         = (*Store)(nil)
	_ storage.StatsReporter = (*Store)(nil)
)

// Open opens a SQLite store and creates the tables if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Guild(ctx context.Context, id string) (storage.GuildRecord, error) {
	return get[storage.GuildRecord](ctx, s.sqlDB, storage.GuildsCollection, id)
}

func (s *Store) InsertGuild(ctx context.Context, rec storage.GuildRecord) error {
	return s.insert(ctx, storage.GuildsCollection, rec.ID, rec)
}

func (s *Store) UpdateGuild(ctx context.Context, id string, fn func(*storage.GuildRecord) error) error {
	return update(ctx, s, storage.GuildsCollection, id, func(rec *storage.GuildRecord) error {
		if err := fn(rec); err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
}

func (s *Store) User(ctx context.Context, id string) (storage.UserRecord, error) {
	return get[storage.UserRecord](ctx, s.sqlDB, storage.UsersCollection, id)
}

func (s *Store) InsertUser(ctx context.Context, rec storage.UserRecord) error {
	return s.insert(ctx, storage.UsersCollection, rec.ID, rec)
}

func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*storage.UserRecord) error) error {
	return update(ctx, s, storage.UsersCollection, id, func(rec *storage.UserRecord) error {
		if err := fn(rec); err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
}

// Stats counts the rows of both tables.
func (s *Store) Stats(ctx context.Context) (storage.Stats, error) {
	var st storage.Stats
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM guilds), (SELECT COUNT(*) FROM users)`,
	).Scan(&st.Guilds, &st.Users)
	if err != nil {
		return storage.Stats{}, fmt.Errorf("count records: %w", err)
	}
	return st, nil
}

// table maps a collection name onto a fixed table name so queries never
// interpolate caller input.
func table(coll string) (string, error) {
	switch coll {
	case storage.GuildsCollection:
		return "guilds", nil
	case storage.UsersCollection:
		return "users", nil
	}
	return "", fmt.Errorf("unknown collection %q", coll)
}

func get[T any](ctx context.Context, db *sql.DB, coll, id string) (T, error) {
	var rec T
	tbl, err := table(coll)
	if err != nil {
		return rec, err
	}

	var doc string
	err = db.QueryRowContext(ctx, `SELECT doc FROM `+tbl+` WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, storage.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s/%s: %w", coll, id, err)
	}
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return rec, fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	return rec, nil
}

func (s *Store) insert(ctx context.Context, coll, id string, rec any) error {
	tbl, err := table(coll)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("insert %s: id is required", coll)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", coll, id, err)
	}

	now := s.now().UTC().UnixMilli()
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO `+tbl+` (id, doc, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, string(doc), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", coll, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", coll, id, err)
	}
	if n == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

// update reads, mutates and writes one row inside a transaction scoped to
// that row.
func update[T any](ctx context.Context, s *Store, coll, id string, fn func(*T) error) error {
	tbl, err := table(coll)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s/%s: %w", coll, id, err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM `+tbl+` WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", coll, id, err)
	}

	var rec T
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	if err := fn(&rec); err != nil {
		return err
	}
	next, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", coll, id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE `+tbl+` SET doc = ?, updated_at = ? WHERE id = ?`,
		string(next), s.now().UTC().UnixMilli(), id,
	); err != nil {
		return fmt.Errorf("update %s/%s: %w", coll, id, err)
	}
	return tx.Commit()
}
