// Package profile shows and edits user records.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"maika/internal/core"
	"maika/internal/event"
	"maika/internal/storage"
)

const maxDescriptionLen = 200

func New() core.Plugin {
	return &core.StaticPlugin{
		ID:      "Profile",
		Heading: "👤 Profile",
		Cmds: []core.Command{
			&ProfileCommand{},
			&CoinsCommand{},
		},
	}
}

// target resolves an optional user argument, defaulting to the sender, and
// loads the record.
func target(ctx context.Context, inv *core.Invocation, token string) (event.Author, storage.UserRecord, error) {
	who := inv.Sender()
	if token != "" {
		u, err := inv.Finder.User(ctx, inv.GuildID(), token)
		if err != nil {
			return who, storage.UserRecord{}, inv.Rejectf("I couldn't find a user matching `%s`.", token)
		}
		who = u
	}

	rec, err := inv.Store.User(ctx, who.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return who, rec, inv.Rejectf("**%s** doesn't have a profile yet.", who.Username)
	}
	if err != nil {
		return who, rec, fmt.Errorf("load user %s: %w", who.ID, err)
	}
	return who, rec, nil
}

type ProfileCommand struct{}

func (c *ProfileCommand) Name() string        { return "profile" }
func (c *ProfileCommand) Description() string { return "Shows a profile, or edits yours." }
func (c *ProfileCommand) Usage() string       { return "[user] | set description <text>" }
func (c *ProfileCommand) Aliases() []string   { return []string{"p"} }
func (c *ProfileCommand) GuildOnly() bool     { return false }
func (c *ProfileCommand) OwnerOnly() bool     { return false }

func (c *ProfileCommand) Run(ctx context.Context, inv *core.Invocation) error {
	if strings.EqualFold(inv.Arg(0), "set") {
		return c.set(ctx, inv)
	}

	who, rec, err := target(ctx, inv, inv.Arg(0))
	if err != nil {
		return err
	}

	married := "Single"
	if rec.Marriage.Is {
		married = "Married to <@" + rec.Marriage.To + ">"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Coins", Value: humanize.Comma(rec.Coins), Inline: true},
		{Name: "Marriage", Value: married, Inline: true},
	}
	for _, s := range []struct{ name, value string }{
		{"osu!", rec.Profile.Social.Osu},
		{"Twitter", rec.Profile.Social.Twitter},
		{"Reddit", rec.Profile.Social.Reddit},
		{"Steam", rec.Profile.Social.Steam},
	} {
		if s.value != "" {
			fields = append(fields, &discordgo.MessageEmbedField{Name: s.name, Value: s.value, Inline: true})
		}
	}

	_, err = inv.Embed(ctx, &discordgo.MessageEmbed{
		Title:       who.Tag() + "'s profile",
		Description: rec.Profile.RenderDescription(inv.Prefix),
		Fields:      fields,
	})
	return err
}

func (c *ProfileCommand) set(ctx context.Context, inv *core.Invocation) error {
	if !strings.EqualFold(inv.Arg(1), "description") {
		return inv.Rejectf("Usage: `%sprofile set description <text>`", inv.Prefix)
	}

	text := strings.Join(inv.Args[2:], " ")
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return inv.Rejectf("You must provide a description.")
	case n > maxDescriptionLen:
		return inv.Rejectf("Your description can be at most %d characters long.", maxDescriptionLen)
	}

	err := inv.Store.UpdateUser(ctx, inv.Sender().ID, func(u *storage.UserRecord) error {
		u.Profile.Description = text
		return nil
	})
	if err != nil {
		return fmt.Errorf("set description for %s: %w", inv.Sender().ID, err)
	}

	_, err = inv.Replyf(ctx, "Updated your description.")
	return err
}

type CoinsCommand struct{}

func (c *CoinsCommand) Name() string        { return "coins" }
func (c *CoinsCommand) Description() string { return "Shows how many coins you or another user have." }
func (c *CoinsCommand) Usage() string       { return "[user]" }
func (c *CoinsCommand) Aliases() []string   { return []string{"balance"} }
func (c *CoinsCommand) GuildOnly() bool     { return false }
func (c *CoinsCommand) OwnerOnly() bool     { return false }

func (c *CoinsCommand) Run(ctx context.Context, inv *core.Invocation) error {
	who, rec, err := target(ctx, inv, inv.Arg(0))
	if err != nil {
		return err
	}
	_, err = inv.Replyf(ctx, "**%s** has %s coins.", who.Username, humanize.Comma(rec.Coins))
	return err
}
