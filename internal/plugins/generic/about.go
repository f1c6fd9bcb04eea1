package generic

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"maika/internal/core"
)

type AboutCommand struct{}

func (c *AboutCommand) Name() string        { return "about" }
func (c *AboutCommand) Description() string { return "Shows information about me, Maika!" }
func (c *AboutCommand) Usage() string       { return "" }
func (c *AboutCommand) Aliases() []string   { return []string{"me"} }
func (c *AboutCommand) GuildOnly() bool     { return false }
func (c *AboutCommand) OwnerOnly() bool     { return false }

func (c *AboutCommand) Run(ctx context.Context, inv *core.Invocation) error {
	placeholder, err := inv.Embed(ctx, &discordgo.MessageEmbed{Description: ":hourglass: Gathering statistics..."})
	if err != nil {
		return err
	}

	self := inv.Gateway.Self()
	desc := fmt.Sprintf(":wave: **Hello, %s! I am %s.**\nUse `%shelp` to see what commands %s has!\n\n%s",
		inv.Sender().Username, self.Username, inv.Prefix, self.Username,
		core.CodeBlock("fix", statsBlock(inv, true)))

	_, err = inv.EditEmbed(ctx, placeholder, &discordgo.MessageEmbed{Description: desc})
	return err
}
