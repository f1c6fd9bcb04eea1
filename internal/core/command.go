package core

import "context"

// Command is a single invocable action. Name and Aliases must be unique
// across every loaded plugin.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Aliases() []string
	GuildOnly() bool
	OwnerOnly() bool
	Run(ctx context.Context, inv *Invocation) error
}

// Plugin is a named bundle of commands. Plugins are immutable once loaded.
type Plugin interface {
	Name() string
	Title() string
	Visible() bool
	Enabled() bool
	Commands() []Command
}

// Source produces one plugin at startup. Load errors are reported and the
// source is skipped.
type Source struct {
	Name string
	Load func() (Plugin, error)
}

// StaticPlugin is a Plugin described by plain fields.
type StaticPlugin struct {
	ID       string
	Heading  string
	Hidden   bool
	Disabled bool
	Cmds     []Command
}

func (p *StaticPlugin) Name() string        { return p.ID }
func (p *StaticPlugin) Title() string       { return p.Heading }
func (p *StaticPlugin) Visible() bool       { return !p.Hidden }
func (p *StaticPlugin) Enabled() bool       { return !p.Disabled }
func (p *StaticPlugin) Commands() []Command { return p.Cmds }
