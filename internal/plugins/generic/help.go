package generic

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"maika/internal/core"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string { return "help" }
func (c *HelpCommand) Description() string {
	return "Gives a list of my plugins or gives a list of commands in that plugin."
}
func (c *HelpCommand) Usage() string     { return "[plugin]" }
func (c *HelpCommand) Aliases() []string { return []string{"halp", "plugin", "plugins", "h"} }
func (c *HelpCommand) GuildOnly() bool   { return false }
func (c *HelpCommand) OwnerOnly() bool   { return false }

func (c *HelpCommand) Run(ctx context.Context, inv *core.Invocation) error {
	plugins := inv.Registry.List(inv.IsOwner())

	if len(inv.Args) == 0 {
		lines := make([]string, 0, len(plugins))
		for _, p := range plugins {
			lines = append(lines, fmt.Sprintf("**%s** (`%shelp %s`)", p.Name(), inv.Prefix, strings.ToLower(p.Name())))
		}
		_, err := inv.Embed(ctx, &discordgo.MessageEmbed{
			Title: inv.Gateway.Self().Tag() + " | Plugins",
			Description: fmt.Sprintf("Here are a list of plugins, use `%shelp [plugin]` to view the plugin's commands!\n\n%s",
				inv.Prefix, strings.Join(lines, "\n")),
			Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d Plugins", len(plugins))},
		})
		return err
	}

	query := strings.Join(inv.Args, " ")
	for _, p := range plugins {
		if !strings.EqualFold(p.Name(), query) {
			continue
		}
		lines := make([]string, 0, len(p.Commands()))
		for _, cmd := range p.Commands() {
			usage := ""
			if cmd.Usage() != "" {
				usage = " " + cmd.Usage()
			}
			lines = append(lines, fmt.Sprintf("**%s%s%s**:  %s", inv.Prefix, cmd.Name(), usage, cmd.Description()))
		}
		_, err := inv.Embed(ctx, &discordgo.MessageEmbed{
			Title:       p.Title(),
			Description: strings.Join(lines, "\n"),
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d Commands", len(p.Commands()))},
		})
		return err
	}

	return inv.Rejectf("The plugin `%s` doesn't exist.", inv.Arg(0))
}
