package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"maika/internal/event"
	"maika/internal/finder"
)

var _ finder.Directory = (*Bot)(nil)

const memberPage = 1000

// UserByID checks the state cache before asking the API.
func (b *Bot) UserByID(ctx context.Context, id string) (event.Author, error) {
	if self := b.Self(); self.ID == id {
		return self, nil
	}
	if u := b.cachedUser(id); u != nil {
		return toAuthor(u), nil
	}

	var user *discordgo.User
	err := b.call(ctx, func() (err error) {
		user, err = b.session.User(id, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return event.Author{}, fmt.Errorf("%w: %s: %v", finder.ErrNotFound, id, err)
	}
	return toAuthor(user), nil
}

func (b *Bot) cachedUser(id string) *discordgo.User {
	st := b.session.State
	st.RLock()
	defer st.RUnlock()
	for _, g := range st.Guilds {
		for _, m := range g.Members {
			if m.User != nil && m.User.ID == id {
				return m.User
			}
		}
	}
	return nil
}

// Members returns cached members, fetching the first page from the API
// when the cache is empty.
func (b *Bot) Members(ctx context.Context, guildID string) ([]event.Author, error) {
	members := b.cachedMembers(guildID)
	if len(members) == 0 {
		err := b.call(ctx, func() (err error) {
			members, err = b.session.GuildMembers(guildID, "", memberPage, discordgo.WithContext(ctx))
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list members of %s: %w", guildID, err)
		}
	}

	out := make([]event.Author, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			out = append(out, toAuthor(m.User))
		}
	}
	return out, nil
}

func (b *Bot) cachedMembers(guildID string) []*discordgo.Member {
	g, err := b.session.State.Guild(guildID)
	if err != nil || g == nil {
		return nil
	}
	b.session.State.RLock()
	defer b.session.State.RUnlock()
	return append([]*discordgo.Member(nil), g.Members...)
}
