package storagetest

import (
	"context"
	"errors"
	"sync"

	"maika/internal/storage"
)

var errMissingID = errors.New("storagetest: record has no id")

// Memory is an in-process Store for tests. It counts writes and can be told
// to fail.
type Memory struct {
	mu     sync.Mutex
	guilds map[string]storage.GuildRecord
	users  map[string]storage.UserRecord

	// Fail, when set, is returned by every operation.
	Fail error
	// userFail holds per-user failures returned by UpdateUser only.
	userFail map[string]error

	Inserts int
	Updates int
}

func NewMemory() *Memory {
	return &Memory{
		guilds:   make(map[string]storage.GuildRecord),
		users:    make(map[string]storage.UserRecord),
		userFail: make(map[string]error),
	}
}

func (m *Memory) Guild(_ context.Context, id string) (storage.GuildRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return storage.GuildRecord{}, m.Fail
	}
	g, ok := m.guilds[id]
	if !ok {
		return storage.GuildRecord{}, storage.ErrNotFound
	}
	return g, nil
}

func (m *Memory) InsertGuild(_ context.Context, rec storage.GuildRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	if rec.ID == "" {
		return errMissingID
	}
	if _, ok := m.guilds[rec.ID]; ok {
		return storage.ErrAlreadyExists
	}
	m.guilds[rec.ID] = rec
	m.Inserts++
	return nil
}

func (m *Memory) UpdateGuild(_ context.Context, id string, fn func(*storage.GuildRecord) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	g, ok := m.guilds[id]
	if !ok {
		return storage.ErrNotFound
	}
	if err := fn(&g); err != nil {
		return err
	}
	g.ID = id
	m.guilds[id] = g
	m.Updates++
	return nil
}

func (m *Memory) User(_ context.Context, id string) (storage.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return storage.UserRecord{}, m.Fail
	}
	u, ok := m.users[id]
	if !ok {
		return storage.UserRecord{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *Memory) InsertUser(_ context.Context, rec storage.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	if rec.ID == "" {
		return errMissingID
	}
	if _, ok := m.users[rec.ID]; ok {
		return storage.ErrAlreadyExists
	}
	m.users[rec.ID] = rec
	m.Inserts++
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, fn func(*storage.UserRecord) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	if err := m.userFail[id]; err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.ID = id
	m.users[id] = u
	m.Updates++
	return nil
}

func (m *Memory) Close() error { return nil }

// Writes returns the number of successful inserts and updates.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Inserts + m.Updates
}

// Guilds returns the number of stored guild records.
func (m *Memory) Guilds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.guilds)
}

// Users returns the number of stored user records.
func (m *Memory) Users() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// SetFail swaps the injected failure.
func (m *Memory) SetFail(err error) {
	m.mu.Lock()
	m.Fail = err
	m.mu.Unlock()
}

// FailUserUpdates makes UpdateUser fail with err for one user id; a nil err
// clears it. Reads and other records are unaffected.
func (m *Memory) FailUserUpdates(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.userFail, id)
		return
	}
	m.userFail[id] = err
}
