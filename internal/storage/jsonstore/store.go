// Package jsonstore implements storage.Store on top of the JSON file
// datastore.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"maika/datastore"
	"maika/internal/storage"
)

type Store struct {
	ds *datastore.DataStore
}

var (
	_ storage.Store         = (*Store)(nil)
	_ storage.StatsReporter = (*Store)(nil)
)

// Open opens (or creates) the datastore file at cfg.FilePath.
func Open(cfg *datastore.Config) (*Store, error) {
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{ds: ds}, nil
}

func (s *Store) Close() error {
	return s.ds.Close()
}

func (s *Store) Guild(ctx context.Context, id string) (storage.GuildRecord, error) {
	return get[storage.GuildRecord](ctx, s.ds, storage.GuildsCollection, id)
}

func (s *Store) InsertGuild(ctx context.Context, rec storage.GuildRecord) error {
	return insert(ctx, s.ds, storage.GuildsCollection, rec.ID, rec)
}

func (s *Store) UpdateGuild(ctx context.Context, id string, fn func(*storage.GuildRecord) error) error {
	return update(ctx, s.ds, storage.GuildsCollection, id, func(rec *storage.GuildRecord) error {
		if err := fn(rec); err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
}

func (s *Store) User(ctx context.Context, id string) (storage.UserRecord, error) {
	return get[storage.UserRecord](ctx, s.ds, storage.UsersCollection, id)
}

func (s *Store) InsertUser(ctx context.Context, rec storage.UserRecord) error {
	return insert(ctx, s.ds, storage.UsersCollection, rec.ID, rec)
}

func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*storage.UserRecord) error) error {
	return update(ctx, s.ds, storage.UsersCollection, id, func(rec *storage.UserRecord) error {
		if err := fn(rec); err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
}

func (s *Store) Stats(ctx context.Context) (storage.Stats, error) {
	if err := ctx.Err(); err != nil {
		return storage.Stats{}, err
	}
	counts := s.ds.Stats().Collections
	return storage.Stats{Guilds: counts[storage.GuildsCollection], Users: counts[storage.UsersCollection]}, nil
}

func get[T any](ctx context.Context, ds *datastore.DataStore, coll, id string) (T, error) {
	var rec T
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	raw, ok := ds.Get(coll, id)
	if !ok {
		return rec, storage.ErrNotFound
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	return rec, nil
}

func insert[T any](ctx context.Context, ds *datastore.DataStore, coll, id string, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("insert %s: id is required", coll)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", coll, id, err)
	}
	if err := ds.Insert(coll, id, raw); err != nil {
		if errors.Is(err, datastore.ErrExists) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert %s/%s: %w", coll, id, err)
	}
	return nil
}

func update[T any](ctx context.Context, ds *datastore.DataStore, coll, id string, fn func(*T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := ds.Update(coll, id, func(raw json.RawMessage) (json.RawMessage, error) {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", coll, id, err)
		}
		if err := fn(&rec); err != nil {
			return nil, err
		}
		return json.Marshal(rec)
	})
	if errors.Is(err, datastore.ErrMissing) {
		return storage.ErrNotFound
	}
	return err
}
