package generic

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"maika/internal/core"
)

type InviteCommand struct{}

func (c *InviteCommand) Name() string        { return "inviteme" }
func (c *InviteCommand) Description() string { return "Invite me to your discord server or join mine!" }
func (c *InviteCommand) Usage() string       { return "" }
func (c *InviteCommand) Aliases() []string   { return []string{"invite"} }
func (c *InviteCommand) GuildOnly() bool     { return false }
func (c *InviteCommand) OwnerOnly() bool     { return false }

func (c *InviteCommand) Run(ctx context.Context, inv *core.Invocation) error {
	_, err := inv.Embed(ctx, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("**Invite**: <https://discord.com/oauth2/authorize?client_id=%s&scope=bot>\n**Discord Server**: %s",
			inv.Gateway.Self().ID, inv.Config.SupportInvite),
	})
	return err
}

type SourceCommand struct{}

func (c *SourceCommand) Name() string        { return "source" }
func (c *SourceCommand) Description() string { return "Grabs Maika's Github repository URL" }
func (c *SourceCommand) Usage() string       { return "" }
func (c *SourceCommand) Aliases() []string   { return []string{"src", "sauce"} }
func (c *SourceCommand) GuildOnly() bool     { return false }
func (c *SourceCommand) OwnerOnly() bool     { return false }

func (c *SourceCommand) Run(ctx context.Context, inv *core.Invocation) error {
	_, err := inv.Replyf(ctx, "<%s>", inv.Config.SourceURL)
	return err
}

type UptimeCommand struct{}

func (c *UptimeCommand) Name() string        { return "uptime" }
func (c *UptimeCommand) Description() string { return "Shows the current uptime for Maika" }
func (c *UptimeCommand) Usage() string       { return "" }
func (c *UptimeCommand) Aliases() []string   { return nil }
func (c *UptimeCommand) GuildOnly() bool     { return false }
func (c *UptimeCommand) OwnerOnly() bool     { return false }

func (c *UptimeCommand) Run(ctx context.Context, inv *core.Invocation) error {
	_, err := inv.Reply(ctx, uptime(inv.StartedAt))
	return err
}

type StatisticsCommand struct{}

func (c *StatisticsCommand) Name() string        { return "statistics" }
func (c *StatisticsCommand) Description() string { return "Gives Maika's current statistics" }
func (c *StatisticsCommand) Usage() string       { return "" }
func (c *StatisticsCommand) Aliases() []string   { return []string{"stats", "botinfo", "bot", "info"} }
func (c *StatisticsCommand) GuildOnly() bool     { return false }
func (c *StatisticsCommand) OwnerOnly() bool     { return false }

func (c *StatisticsCommand) Run(ctx context.Context, inv *core.Invocation) error {
	_, err := inv.Code(ctx, "fix", statsBlock(inv, false))
	return err
}
