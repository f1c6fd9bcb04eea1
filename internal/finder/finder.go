// Package finder resolves the user tokens commands take as arguments: a
// mention, a raw id, a username or a username#discriminator tag.
package finder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"maika/internal/event"
)

var ErrNotFound = errors.New("finder: no matching user")

var (
	mentionRe   = regexp.MustCompile(`^<@!?(\d+)>$`)
	snowflakeRe = regexp.MustCompile(`^\d{15,21}$`)
)

// Directory is the user lookup the chat client offers.
type Directory interface {
	// UserByID returns ErrNotFound (or a wrapped form) when the id is unknown.
	UserByID(ctx context.Context, id string) (event.Author, error)
	// Members lists the members of a guild known to the client.
	Members(ctx context.Context, guildID string) ([]event.Author, error)
}

// Finder caches successful resolutions per guild.
type Finder struct {
	dir   Directory
	cache *cache.Cache
}

// New returns a finder whose cache entries live for ttl.
func New(dir Directory, ttl time.Duration) *Finder {
	return &Finder{
		dir:   dir,
		cache: cache.New(ttl, 2*ttl),
	}
}

// User resolves token within guildID. Names only resolve inside a guild.
func (f *Finder) User(ctx context.Context, guildID, token string) (event.Author, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return event.Author{}, ErrNotFound
	}

	key := guildID + "|" + strings.ToLower(token)
	if v, ok := f.cache.Get(key); ok {
		return v.(event.Author), nil
	}

	u, err := f.resolve(ctx, guildID, token)
	if err != nil {
		return event.Author{}, err
	}
	f.cache.SetDefault(key, u)
	return u, nil
}

func (f *Finder) resolve(ctx context.Context, guildID, token string) (event.Author, error) {
	id := ""
	if m := mentionRe.FindStringSubmatch(token); m != nil {
		id = m[1]
	} else if snowflakeRe.MatchString(token) {
		id = token
	}
	if id != "" {
		u, err := f.dir.UserByID(ctx, id)
		if err != nil {
			return event.Author{}, fmt.Errorf("%w: %s: %v", ErrNotFound, id, err)
		}
		return u, nil
	}

	if guildID == "" {
		return event.Author{}, ErrNotFound
	}
	members, err := f.dir.Members(ctx, guildID)
	if err != nil {
		return event.Author{}, fmt.Errorf("list members of %s: %w", guildID, err)
	}
	if u, ok := byName(members, token); ok {
		return u, nil
	}
	return event.Author{}, ErrNotFound
}

// byName prefers an exact tag, then an exact username, then a unique
// username prefix. All comparisons ignore case.
func byName(members []event.Author, token string) (event.Author, bool) {
	for _, m := range members {
		if strings.EqualFold(m.Tag(), token) {
			return m, true
		}
	}
	for _, m := range members {
		if strings.EqualFold(m.Username, token) {
			return m, true
		}
	}

	lower := strings.ToLower(token)
	var found []event.Author
	for _, m := range members {
		if strings.HasPrefix(strings.ToLower(m.Username), lower) {
			found = append(found, m)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return event.Author{}, false
}
