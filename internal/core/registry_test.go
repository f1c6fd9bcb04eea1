package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	name      string
	aliases   []string
	guildOnly bool
	ownerOnly bool
	calls     int
	err       error
}

func (c *stubCommand) Name() string        { return c.name }
func (c *stubCommand) Description() string { return c.name + " description" }
func (c *stubCommand) Usage() string       { return "" }
func (c *stubCommand) Aliases() []string   { return c.aliases }
func (c *stubCommand) GuildOnly() bool     { return c.guildOnly }
func (c *stubCommand) OwnerOnly() bool     { return c.ownerOnly }
func (c *stubCommand) Run(context.Context, *Invocation) error {
	c.calls++
	return c.err
}

type stubPlugin struct {
	name     string
	visible  bool
	disabled bool
	commands []Command
}

func (p *stubPlugin) Name() string        { return p.name }
func (p *stubPlugin) Title() string       { return p.name }
func (p *stubPlugin) Visible() bool       { return p.visible }
func (p *stubPlugin) Enabled() bool       { return !p.disabled }
func (p *stubPlugin) Commands() []Command { return p.commands }

func source(p Plugin) Source {
	return Source{Name: p.Name(), Load: func() (Plugin, error) { return p, nil }}
}

func TestRegistryLookupByNameAndAlias(t *testing.T) {
	ping := &stubCommand{name: "ping", aliases: []string{"ping-pong"}}
	help := &stubCommand{name: "help", aliases: []string{"halp", "h"}}

	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Load([]Source{
		source(&stubPlugin{name: "Generic", visible: true, commands: []Command{ping, help}}),
	}))

	for token, want := range map[string]Command{
		"ping":      ping,
		"ping-pong": ping,
		"help":      help,
		"h":         help,
	} {
		got, ok := r.Lookup(token)
		require.True(t, ok, token)
		assert.Same(t, want, got, token)
	}

	_, ok := r.Lookup("PING")
	assert.False(t, ok, "lookup is exact")
	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistryRejectsAliasCollision(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	err := r.Load([]Source{
		source(&stubPlugin{name: "Generic", commands: []Command{&stubCommand{name: "about", aliases: []string{"me"}}}}),
		source(&stubPlugin{name: "Profile", commands: []Command{&stubCommand{name: "profile", aliases: []string{"me"}}}}),
	})

	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), `"me"`)
	_, ok := r.Lookup("about")
	assert.False(t, ok, "a rejected load leaves the registry empty")
	assert.Equal(t, 0, r.Count())
}

func TestRegistryRejectsNameCollisions(t *testing.T) {
	cases := map[string][]Source{
		"name vs name": {
			source(&stubPlugin{name: "A", commands: []Command{&stubCommand{name: "ping"}}}),
			source(&stubPlugin{name: "B", commands: []Command{&stubCommand{name: "ping"}}}),
		},
		"alias vs name": {
			source(&stubPlugin{name: "A", commands: []Command{&stubCommand{name: "stats"}}}),
			source(&stubPlugin{name: "B", commands: []Command{&stubCommand{name: "statistics", aliases: []string{"stats"}}}}),
		},
		"alias repeats own name": {
			source(&stubPlugin{name: "A", commands: []Command{&stubCommand{name: "ping", aliases: []string{"ping"}}}}),
		},
		"duplicate plugin": {
			source(&stubPlugin{name: "Generic"}),
			source(&stubPlugin{name: "generic"}),
		},
		"empty alias": {
			source(&stubPlugin{name: "A", commands: []Command{&stubCommand{name: "ping", aliases: []string{""}}}}),
		},
	}

	for name, sources := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewRegistry(zerolog.Nop()).Load(sources)
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestRegistrySkipsFailingSources(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	err := r.Load([]Source{
		{Name: "broken", Load: func() (Plugin, error) { return nil, errors.New("boom") }},
		{Name: "panics", Load: func() (Plugin, error) { panic("bad plugin") }},
		{Name: "nil", Load: func() (Plugin, error) { return nil, nil }},
		{Name: "no loader"},
		source(&stubPlugin{name: "Off", disabled: true, commands: []Command{&stubCommand{name: "off"}}}),
		source(&stubPlugin{name: "Generic", visible: true, commands: []Command{&stubCommand{name: "ping"}}}),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, r.Count())
	_, ok := r.Lookup("ping")
	assert.True(t, ok)
	_, ok = r.Lookup("off")
	assert.False(t, ok, "disabled plugins are not indexed")
}

func TestRegistryLoadsOnce(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Load(nil))
	require.ErrorIs(t, r.Load(nil), ErrConfig)
}

func TestRegistryListVisibility(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Load([]Source{
		source(&stubPlugin{name: "Generic", visible: true}),
		source(&stubPlugin{name: "Developer", visible: false}),
		source(&stubPlugin{name: "Marriage", visible: true}),
	}))

	names := func(ps []Plugin) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name())
		}
		return out
	}

	assert.Equal(t, []string{"Generic", "Marriage"}, names(r.List(false)))
	assert.Equal(t, []string{"Generic", "Developer", "Marriage"}, names(r.List(true)))

	p, ok := r.Plugin("marriage")
	require.True(t, ok)
	assert.Equal(t, "Marriage", p.Name())
}
