// Package developer holds operator-only commands. The plugin is hidden from
// help for everyone else.
package developer

import (
	"context"
	"fmt"
	"strings"

	"maika/internal/core"
)

func New() core.Plugin {
	return &core.StaticPlugin{
		ID:      "Developer",
		Heading: "🔧 Developer",
		Hidden:  true,
		Cmds: []core.Command{
			&MaintenanceCommand{},
			&JobsCommand{},
		},
	}
}

type MaintenanceCommand struct{}

func (c *MaintenanceCommand) Name() string        { return "maintenance" }
func (c *MaintenanceCommand) Description() string { return "Toggles the maintenance presence." }
func (c *MaintenanceCommand) Usage() string       { return "<on|off>" }
func (c *MaintenanceCommand) Aliases() []string   { return nil }
func (c *MaintenanceCommand) GuildOnly() bool     { return false }
func (c *MaintenanceCommand) OwnerOnly() bool     { return true }

func (c *MaintenanceCommand) Run(ctx context.Context, inv *core.Invocation) error {
	var on bool
	switch strings.ToLower(inv.Arg(0)) {
	case "on":
		on = true
	case "off":
	default:
		return inv.Rejectf("Usage: `%smaintenance <on|off>`", inv.Prefix)
	}

	if err := inv.Gateway.SetMaintenance(on); err != nil {
		return fmt.Errorf("set maintenance %t: %w", on, err)
	}
	inv.Logger.Info().Bool("on", on).Str("by", inv.Sender().ID).Msg("maintenance toggled")

	state := "disabled"
	if on {
		state = "enabled"
	}
	_, err := inv.Replyf(ctx, "Maintenance mode %s.", state)
	return err
}

type JobsCommand struct{}

func (c *JobsCommand) Name() string        { return "jobs" }
func (c *JobsCommand) Description() string { return "Lists background jobs, or cancels one." }
func (c *JobsCommand) Usage() string       { return "[stop <job>]" }
func (c *JobsCommand) Aliases() []string   { return nil }
func (c *JobsCommand) GuildOnly() bool     { return false }
func (c *JobsCommand) OwnerOnly() bool     { return true }

func (c *JobsCommand) Run(ctx context.Context, inv *core.Invocation) error {
	switch strings.ToLower(inv.Arg(0)) {
	case "":
		_, err := inv.Replyf(ctx, "%s", inv.Jobs.Status())
		return err
	case "stop":
		key := inv.Arg(1)
		if key == "" {
			return inv.Rejectf("Usage: `%sjobs stop <job>`", inv.Prefix)
		}
		if err := inv.Jobs.Stop(key); err != nil {
			return inv.Rejectf("No job named `%s` is running.", key)
		}
		inv.Logger.Info().Str("job", key).Str("by", inv.Sender().ID).Msg("job stopped")
		_, err := inv.Replyf(ctx, "Stopped `%s`.", key)
		return err
	default:
		return inv.Rejectf("Usage: `%sjobs [stop <job>]`", inv.Prefix)
	}
}
