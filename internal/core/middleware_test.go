package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maika/internal/event"
)

func invocationIn(channel event.Channel, sender string, owners ...string) *Invocation {
	return &Invocation{
		ID: "inv-1",
		Message: event.Message{
			Content: "m!cmd",
			Author:  event.Author{ID: sender, Username: "name-" + sender},
			Channel: channel,
		},
		Services: &Services{Owners: NewOwnerSet(owners), Logger: zerolog.Nop()},
	}
}

var (
	guildChannel = event.Channel{ID: "c1", Type: event.ChannelGuildText, GuildID: "g1"}
	dmChannel    = event.Channel{ID: "d1", Type: event.ChannelDM}
)

func guarded(cmd Command) Command {
	return Apply(cmd, WithCommandLogger(zerolog.Nop()), WithGuildOnly(), WithOwnerOnly())
}

func TestGuildOnlyGuard(t *testing.T) {
	cmd := &stubCommand{name: "marry", guildOnly: true}

	err := guarded(cmd).Run(context.Background(), invocationIn(dmChannel, "u1"))
	ue, ok := AsUserError(err)
	require.True(t, ok)
	assert.Contains(t, ue.Msg, "must be in a guild")
	assert.Contains(t, ue.Msg, "marry")
	assert.Equal(t, 0, cmd.calls, "handler must not run")

	require.NoError(t, guarded(cmd).Run(context.Background(), invocationIn(guildChannel, "u1")))
	assert.Equal(t, 1, cmd.calls)
}

func TestOwnerOnlyGuard(t *testing.T) {
	cmd := &stubCommand{name: "maintenance", ownerOnly: true}

	err := guarded(cmd).Run(context.Background(), invocationIn(guildChannel, "u1", "owner"))
	ue, ok := AsUserError(err)
	require.True(t, ok)
	assert.Contains(t, ue.Msg, "developer")
	assert.Equal(t, 0, cmd.calls)

	require.NoError(t, guarded(cmd).Run(context.Background(), invocationIn(dmChannel, "owner", "owner")))
	assert.Equal(t, 1, cmd.calls)
}

func TestGuildCheckRunsBeforeOwnerCheck(t *testing.T) {
	cmd := &stubCommand{name: "both", guildOnly: true, ownerOnly: true}

	err := guarded(cmd).Run(context.Background(), invocationIn(dmChannel, "u1"))
	ue, ok := AsUserError(err)
	require.True(t, ok)
	assert.Contains(t, ue.Msg, "guild")
}

func TestWrapPreservesIdentityAndErrors(t *testing.T) {
	boom := errors.New("boom")
	cmd := &stubCommand{name: "ping", aliases: []string{"ping-pong"}, err: boom}
	w := guarded(cmd)

	assert.Equal(t, "ping", w.Name())
	assert.Equal(t, []string{"ping-pong"}, w.Aliases())
	assert.Same(t, cmd, Root(w))
	assert.Same(t, cmd, Root(cmd))

	require.ErrorIs(t, w.Run(context.Background(), invocationIn(guildChannel, "u1")), boom)
}

func TestApplyOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, name)
				return c.Run(ctx, inv)
			})
		}
	}

	cmd := Apply(&stubCommand{name: "x"}, tag("outer"), tag("inner"))
	require.NoError(t, cmd.Run(context.Background(), invocationIn(guildChannel, "u1")))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestInvocationHelpers(t *testing.T) {
	inv := invocationIn(guildChannel, "u1", "u1")
	inv.Args = []string{"a", "b"}

	assert.Equal(t, "a", inv.Arg(0))
	assert.Equal(t, "", inv.Arg(5))
	assert.Equal(t, "", inv.Arg(-1))
	assert.True(t, inv.IsOwner())
	assert.True(t, inv.InGuild())
	assert.Equal(t, "g1", inv.GuildID())
	assert.Equal(t, "```ini\nx\n```", CodeBlock("ini", "x"))
}
