// Package settings administers the per-guild record.
package settings

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"maika/internal/core"
	"maika/internal/storage"
)

// MaxPrefixLen bounds a guild prefix, in runes.
const MaxPrefixLen = 10

func New() core.Plugin {
	return &core.StaticPlugin{
		ID:      "Settings",
		Heading: "⚙ Settings",
		Cmds: []core.Command{
			&PrefixCommand{},
			&SettingsCommand{},
		},
	}
}

type PrefixCommand struct{}

func (c *PrefixCommand) Name() string        { return "prefix" }
func (c *PrefixCommand) Description() string { return "Shows or changes the prefix for this guild." }
func (c *PrefixCommand) Usage() string       { return "[new prefix]" }
func (c *PrefixCommand) Aliases() []string   { return []string{"setprefix"} }
func (c *PrefixCommand) GuildOnly() bool     { return true }
func (c *PrefixCommand) OwnerOnly() bool     { return false }

func (c *PrefixCommand) Run(ctx context.Context, inv *core.Invocation) error {
	current := inv.Config.Prefix
	if inv.Guild != nil {
		current = inv.Guild.Prefix
	}

	next := inv.Arg(0)
	if next == "" {
		_, err := inv.Replyf(ctx, "The prefix here is `%s`. `%s` always works too.", current, inv.Config.Prefix)
		return err
	}

	if !inv.IsOwner() && !inv.Gateway.CanManageGuild(inv.GuildID(), inv.Sender().ID) {
		return inv.Rejectf("You need the **Manage Server** permission to change the prefix.")
	}
	if utf8.RuneCountInString(next) > MaxPrefixLen {
		return inv.Rejectf("The prefix can be at most %d characters long.", MaxPrefixLen)
	}

	err := inv.Store.UpdateGuild(ctx, inv.GuildID(), func(g *storage.GuildRecord) error {
		g.Prefix = next
		return nil
	})
	if err != nil {
		return fmt.Errorf("set prefix for %s: %w", inv.GuildID(), err)
	}

	_, err = inv.Replyf(ctx, "Changed the prefix from `%s` to `%s`.", current, next)
	return err
}

type SettingsCommand struct{}

func (c *SettingsCommand) Name() string        { return "settings" }
func (c *SettingsCommand) Description() string { return "Shows the settings of this guild." }
func (c *SettingsCommand) Usage() string       { return "" }
func (c *SettingsCommand) Aliases() []string   { return []string{"config"} }
func (c *SettingsCommand) GuildOnly() bool     { return true }
func (c *SettingsCommand) OwnerOnly() bool     { return false }

func (c *SettingsCommand) Run(ctx context.Context, inv *core.Invocation) error {
	g, err := inv.Store.Guild(ctx, inv.GuildID())
	if err != nil {
		return fmt.Errorf("load guild %s: %w", inv.GuildID(), err)
	}

	_, err = inv.Embed(ctx, &discordgo.MessageEmbed{
		Title: "Guild settings",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Prefix", Value: "`" + g.Prefix + "`", Inline: true},
			{Name: "Logging", Value: toggle(g.Logging.Enabled, channel(g.Logging.ChannelID)), Inline: true},
			{Name: "Feed", Value: toggle(g.Feed.Enabled, feed(g.Feed)), Inline: true},
		},
	})
	return err
}

func toggle(on bool, detail string) string {
	if !on {
		return "Disabled"
	}
	if detail == "" {
		return "Enabled"
	}
	return "Enabled (" + detail + ")"
}

func channel(id string) string {
	if id == "" {
		return ""
	}
	return "<#" + id + ">"
}

func feed(f storage.FeedSettings) string {
	out := channel(f.ChannelID)
	if f.Subreddit != "" {
		if out != "" {
			out += ", "
		}
		out += "r/" + f.Subreddit
	}
	return out
}
