package profile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maika/internal/core"
	"maika/internal/core/coretest"
	"maika/internal/event"
	"maika/internal/storage"
)

var (
	alice = event.Author{ID: "2", Username: "alice"}
	bob   = event.Author{ID: "3", Username: "bob"}
	ghost = event.Author{ID: "9", Username: "ghost"}
)

func newEnv(t *testing.T) *coretest.Env {
	t.Helper()
	env := coretest.NewEnv(alice, bob, ghost)
	ctx := context.Background()
	require.NoError(t, env.Store.InsertUser(ctx, storage.NewUserRecord(alice.ID)))
	bobRec := storage.NewUserRecord(bob.ID)
	bobRec.Coins = 12500
	bobRec.Marriage = storage.Marriage{Is: true, To: alice.ID}
	bobRec.Profile.Social.Osu = "bobby"
	require.NoError(t, env.Store.InsertUser(ctx, bobRec))
	return env
}

func TestProfileDefaults(t *testing.T) {
	env := newEnv(t)

	require.NoError(t, (&ProfileCommand{}).Run(context.Background(), env.Invocation(alice, coretest.Guild, "profile")))
	embed := env.Gateway.Last().Embed
	require.NotNil(t, embed)
	assert.Equal(t, "alice's profile", embed.Title)
	assert.Equal(t, "Use the `m!profile set description <desc>` to set a description!", embed.Description)
	assert.Equal(t, "0", embed.Fields[0].Value)
	assert.Equal(t, "Single", embed.Fields[1].Value)
	assert.Len(t, embed.Fields, 2)
}

func TestProfileOfOtherUser(t *testing.T) {
	env := newEnv(t)

	require.NoError(t, (&ProfileCommand{}).Run(context.Background(), env.Invocation(alice, coretest.Guild, "profile", "bob")))
	embed := env.Gateway.Last().Embed
	assert.Equal(t, "12,500", embed.Fields[0].Value)
	assert.Equal(t, "Married to <@2>", embed.Fields[1].Value)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "bobby", embed.Fields[2].Value)

	_, ok := core.AsUserError((&ProfileCommand{}).Run(context.Background(), env.Invocation(alice, coretest.Guild, "profile", "ghost")))
	assert.True(t, ok, "users without a record are rejected")
	_, ok = core.AsUserError((&ProfileCommand{}).Run(context.Background(), env.Invocation(alice, coretest.Guild, "profile", "nobody")))
	assert.True(t, ok)
}

func TestSetDescription(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	require.NoError(t, (&ProfileCommand{}).Run(ctx, env.Invocation(alice, coretest.Guild, "profile", "set", "description", "hello", "there")))
	u, err := env.Store.User(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", u.Profile.Description)

	for _, args := range [][]string{
		{"set"},
		{"set", "description"},
		{"set", "description", strings.Repeat("x", 201)},
	} {
		_, ok := core.AsUserError((&ProfileCommand{}).Run(ctx, env.Invocation(alice, coretest.Guild, "profile", args...)))
		assert.True(t, ok, args)
	}
}

func TestCoins(t *testing.T) {
	env := newEnv(t)

	require.NoError(t, (&CoinsCommand{}).Run(context.Background(), env.Invocation(alice, coretest.DM, "coins", "<@3>")))
	assert.Equal(t, "**alice**: **bob** has 12,500 coins.", env.Gateway.Last().Content)
}
