package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maika/internal/collector"
	"maika/internal/config"
	"maika/internal/event"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	dg, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	b := newBot(dg, &config.Config{Prefix: "m!"}, zerolog.Nop())

	st := dg.State
	require.NoError(t, st.GuildAdd(&discordgo.Guild{
		ID:          "g1",
		OwnerID:     "9",
		MemberCount: 3,
		Roles: []*discordgo.Role{
			{ID: "g1", Name: "@everyone"},
			{ID: "admin", Permissions: discordgo.PermissionAdministrator},
			{ID: "mods", Permissions: discordgo.PermissionManageGuild},
			{ID: "chat", Permissions: discordgo.PermissionSendMessages},
		},
		Channels: []*discordgo.Channel{{ID: "c1", GuildID: "g1", Type: discordgo.ChannelTypeGuildText}},
	}))
	for _, m := range []*discordgo.Member{
		{GuildID: "g1", User: &discordgo.User{ID: "2", Username: "alice"}, Roles: []string{"admin"}},
		{GuildID: "g1", User: &discordgo.User{ID: "3", Username: "bob"}, Roles: []string{"mods"}},
		{GuildID: "g1", User: &discordgo.User{ID: "4", Username: "carol"}, Roles: []string{"chat"}},
	} {
		require.NoError(t, st.MemberAdd(m))
	}
	require.NoError(t, st.ChannelAdd(&discordgo.Channel{ID: "d1", Type: discordgo.ChannelTypeDM}))
	return b
}

func TestToMessage(t *testing.T) {
	b := newTestBot(t)

	msg := b.toMessage(&discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "m!ping",
		Author:    &discordgo.User{ID: "2", Username: "alice", Discriminator: "0"},
	})
	assert.Equal(t, event.Message{
		ID:      "m1",
		Content: "m!ping",
		Author:  event.Author{ID: "2", Username: "alice", Discriminator: "0"},
		Channel: event.Channel{ID: "c1", GuildID: "g1", Type: event.ChannelGuildText},
	}, msg)
	assert.True(t, msg.Channel.InGuild())

	dm := b.toMessage(&discordgo.Message{ID: "m2", ChannelID: "d1", Author: &discordgo.User{ID: "2"}})
	assert.Equal(t, event.ChannelDM, dm.Channel.Type)
	assert.False(t, dm.Channel.InGuild())

	unknown := b.toMessage(&discordgo.Message{ID: "m3", ChannelID: "zz", Author: &discordgo.User{ID: "2"}})
	assert.Equal(t, event.ChannelDM, unknown.Channel.Type)

	uncached := b.toMessage(&discordgo.Message{ID: "m4", ChannelID: "c9", GuildID: "g1", Author: &discordgo.User{ID: "2"}})
	assert.True(t, uncached.Channel.InGuild())
}

func TestChannelType(t *testing.T) {
	assert.Equal(t, event.ChannelGroupDM, channelType(discordgo.ChannelTypeGroupDM, ""))
	assert.Equal(t, event.ChannelGuildText, channelType(discordgo.ChannelTypeGuildNews, "g1"))
	assert.Equal(t, event.ChannelDM, channelType(discordgo.ChannelTypeGuildText, ""))
}

func TestCanManageGuild(t *testing.T) {
	b := newTestBot(t)

	assert.True(t, b.CanManageGuild("g1", "9"), "owner")
	assert.True(t, b.CanManageGuild("g1", "2"), "administrator")
	assert.True(t, b.CanManageGuild("g1", "3"), "manage server")
	assert.False(t, b.CanManageGuild("g1", "4"))
	assert.False(t, b.CanManageGuild("nope", "2"))
}

func TestStatsAndShards(t *testing.T) {
	b := newTestBot(t)

	s := b.Stats()
	assert.Equal(t, 1, s.Guilds)
	assert.Equal(t, 3, s.Users)
	assert.Equal(t, 2, s.Channels, "guild channel plus the DM")

	shards := b.Shards()
	require.Len(t, shards, 1)
	assert.Equal(t, "connecting", shards[0].Status)

	b.ready.Store(true)
	assert.Equal(t, "ready", b.Shards()[0].Status)
}

func TestShardOf(t *testing.T) {
	assert.Equal(t, 0, shardOf("81384788765712384", 1))
	assert.Equal(t, 0, shardOf("not-a-number", 4))
	id := uint64(81384788765712384)
	assert.Equal(t, int((id>>22)%4), shardOf("81384788765712384", 4))
}

func TestDirectoryUsesState(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	u, err := b.UserByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	members, err := b.Members(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestRestStatus(t *testing.T) {
	rest := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	assert.Equal(t, http.StatusForbidden, restStatus(fmt.Errorf("wrapped: %w", rest)))
	assert.Zero(t, restStatus(errors.New("network")))
	assert.Zero(t, restStatus(&discordgo.RESTError{}))
}

type recordingHandler struct {
	mu   sync.Mutex
	msgs []event.Message
}

func (h *recordingHandler) Handle(_ context.Context, msg event.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

func TestMessageIsCollectedAndDispatched(t *testing.T) {
	b := newTestBot(t)
	h := &recordingHandler{}
	b.collector = collector.New()
	b.handler = h

	got := make(chan collector.Result, 1)
	go func() {
		res, err := b.collector.Await(context.Background(), collector.Scope{ChannelID: "c1", ResponderID: "3"}, time.Second, nil)
		assert.NoError(t, err)
		got <- res
	}()
	require.Eventually(t, func() bool { return b.collector.Pending() == 1 }, time.Second, time.Millisecond)

	b.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m1", ChannelID: "c1", GuildID: "g1", Content: "yes",
		Author: &discordgo.User{ID: "3", Username: "bob"},
	}})
	b.inflight.Wait()

	assert.Equal(t, "yes", (<-got).Content())
	assert.Equal(t, 1, h.count(), "collected messages still reach the dispatcher")

	b.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{ID: "m2", ChannelID: "c1"}})
	b.inflight.Wait()
	assert.Equal(t, 1, h.count(), "messages without an author are dropped")
}

func TestReadyFlag(t *testing.T) {
	b := newTestBot(t)
	assert.False(t, b.Ready())

	b.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "100", Username: "Maika", Bot: true}})
	assert.True(t, b.Ready())
	assert.Equal(t, "100", b.Self().ID)

	self, err := b.UserByID(context.Background(), "100")
	require.NoError(t, err)
	assert.True(t, self.Bot)

	b.onDisconnect(nil, &discordgo.Disconnect{})
	assert.False(t, b.Ready())
	b.onResumed(nil, &discordgo.Resumed{})
	assert.True(t, b.Ready())
}

func TestRunRequiresCollaborators(t *testing.T) {
	b := newTestBot(t)
	require.Error(t, b.Run(context.Background(), nil, nil))
}
