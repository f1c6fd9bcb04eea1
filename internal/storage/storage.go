// Package storage defines the per-guild and per-user documents and the
// point-operation store contract the bot persists them through.
package storage

import (
	"context"
	"errors"
	"strings"
)

const (
	GuildsCollection = "guilds"
	UsersCollection  = "users"
)

var (
	ErrNotFound      = errors.New("storage: record not found")
	ErrAlreadyExists = errors.New("storage: record already exists")
)

// DefaultDescription is the profile text every new user starts with.
// {{prefix}} is substituted at render time.
const DefaultDescription = "Use the `{{prefix}}profile set description <desc>` to set a description!"

type GuildRecord struct {
	ID      string          `json:"id"`
	Prefix  string          `json:"prefix"`
	Logging LoggingSettings `json:"logging"`
	Feed    FeedSettings    `json:"feed"`
}

type LoggingSettings struct {
	Enabled   bool   `json:"enabled"`
	ChannelID string `json:"channelId,omitempty"`
}

type FeedSettings struct {
	Enabled   bool   `json:"enabled"`
	ChannelID string `json:"channelId,omitempty"`
	Subreddit string `json:"subreddit,omitempty"`
}

type UserRecord struct {
	ID       string   `json:"id"`
	Coins    int64    `json:"coins"`
	Profile  Profile  `json:"profile"`
	Marriage Marriage `json:"marriage"`
}

type Profile struct {
	Description string `json:"description"`
	Social      Social `json:"social"`
}

type Social struct {
	Osu     string `json:"osu,omitempty"`
	Twitter string `json:"twitter,omitempty"`
	Reddit  string `json:"reddit,omitempty"`
	Steam   string `json:"steam,omitempty"`
}

// Marriage.To is empty when Is is false.
type Marriage struct {
	Is bool   `json:"is"`
	To string `json:"to,omitempty"`
}

// NewGuildRecord returns the record a guild gets on first contact.
func NewGuildRecord(id, prefix string) GuildRecord {
	return GuildRecord{ID: id, Prefix: prefix}
}

// NewUserRecord returns the record a user gets on first contact.
func NewUserRecord(id string) UserRecord {
	return UserRecord{
		ID:      id,
		Profile: Profile{Description: DefaultDescription},
	}
}

// RenderDescription substitutes the prefix placeholder.
func (p Profile) RenderDescription(prefix string) string {
	return strings.ReplaceAll(p.Description, "{{prefix}}", prefix)
}

// Store is the document store the dispatcher and plugins talk to. All
// operations address one record; none span records.
type Store interface {
	// Guild returns ErrNotFound for unknown ids.
	Guild(ctx context.Context, id string) (GuildRecord, error)
	// InsertGuild returns ErrAlreadyExists if the id is taken.
	InsertGuild(ctx context.Context, rec GuildRecord) error
	// UpdateGuild applies fn to the stored record and writes it back.
	UpdateGuild(ctx context.Context, id string, fn func(*GuildRecord) error) error

	User(ctx context.Context, id string) (UserRecord, error)
	InsertUser(ctx context.Context, rec UserRecord) error
	UpdateUser(ctx context.Context, id string, fn func(*UserRecord) error) error

	Close() error
}

// Stats counts the records a store holds.
type Stats struct {
	Guilds int `json:"guilds" yaml:"guilds"`
	Users  int `json:"users" yaml:"users"`
}

// StatsReporter is implemented by stores that can count their records.
type StatsReporter interface {
	Stats(ctx context.Context) (Stats, error)
}
