// Package coretest provides in-memory collaborators for command and
// dispatcher tests.
package coretest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"maika/internal/collector"
	"maika/internal/config"
	"maika/internal/core"
	"maika/internal/event"
	"maika/internal/storage/storagetest"
	"maika/pkg/jobmgr"
)

// Sent is one outbound operation recorded by Gateway.
type Sent struct {
	Op        string // send, embed, edit, edit-embed, delete
	ChannelID string
	MessageID string
	Content   string
	Embed     *discordgo.MessageEmbed
}

// Gateway records outbound traffic. Safe for concurrent use.
type Gateway struct {
	mu   sync.Mutex
	sent []Sent
	seq  int

	SelfUser    event.Author
	NotReady    bool
	Managers    map[string]bool // userID -> may manage guild
	Maintenance bool
	ShardList   []core.ShardInfo
	Counts      core.Stats
	SendErr     error
}

func NewGateway() *Gateway {
	return &Gateway{
		SelfUser:  event.Author{ID: "100", Username: "Maika", Bot: true},
		Managers:  map[string]bool{},
		ShardList: []core.ShardInfo{{ID: 0, Latency: 42 * time.Millisecond, Status: "ready"}},
	}
}

func (g *Gateway) Self() event.Author { return g.SelfUser }
func (g *Gateway) Ready() bool        { return !g.NotReady }

func (g *Gateway) record(s Sent) event.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s.MessageID == "" {
		g.seq++
		s.MessageID = fmt.Sprintf("m%d", g.seq)
	}
	g.sent = append(g.sent, s)
	return event.Message{
		ID:      s.MessageID,
		Content: s.Content,
		Author:  g.SelfUser,
		Channel: event.Channel{ID: s.ChannelID},
	}
}

func (g *Gateway) Send(_ context.Context, channelID, content string) (event.Message, error) {
	if g.SendErr != nil {
		return event.Message{}, g.SendErr
	}
	return g.record(Sent{Op: "send", ChannelID: channelID, Content: content}), nil
}

func (g *Gateway) SendEmbed(_ context.Context, channelID string, embed *discordgo.MessageEmbed) (event.Message, error) {
	if g.SendErr != nil {
		return event.Message{}, g.SendErr
	}
	return g.record(Sent{Op: "embed", ChannelID: channelID, Embed: embed}), nil
}

func (g *Gateway) Edit(_ context.Context, msg event.Message, content string) (event.Message, error) {
	return g.record(Sent{Op: "edit", ChannelID: msg.Channel.ID, MessageID: msg.ID, Content: content}), nil
}

func (g *Gateway) EditEmbed(_ context.Context, msg event.Message, embed *discordgo.MessageEmbed) (event.Message, error) {
	return g.record(Sent{Op: "edit-embed", ChannelID: msg.Channel.ID, MessageID: msg.ID, Embed: embed}), nil
}

func (g *Gateway) Delete(_ context.Context, msg event.Message) error {
	g.record(Sent{Op: "delete", ChannelID: msg.Channel.ID, MessageID: msg.ID})
	return nil
}

func (g *Gateway) Stats() core.Stats          { return g.Counts }
func (g *Gateway) Shards() []core.ShardInfo   { return g.ShardList }
func (g *Gateway) ShardOf(guildID string) int { return 0 }

func (g *Gateway) CanManageGuild(_, userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Managers[userID]
}

func (g *Gateway) SetMaintenance(on bool) error {
	g.mu.Lock()
	g.Maintenance = on
	g.mu.Unlock()
	return nil
}

// Sent returns a copy of everything recorded so far.
func (g *Gateway) Sent() []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Sent(nil), g.sent...)
}

// Texts returns the content of plain sends and edits, in order.
func (g *Gateway) Texts() []string {
	var out []string
	for _, s := range g.Sent() {
		if s.Op == "send" || s.Op == "edit" {
			out = append(out, s.Content)
		}
	}
	return out
}

// Last returns the most recent operation, or a zero Sent.
func (g *Gateway) Last() Sent {
	sent := g.Sent()
	if len(sent) == 0 {
		return Sent{}
	}
	return sent[len(sent)-1]
}

// WaitFor polls until n operations were recorded or the deadline passes.
func (g *Gateway) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(g.Sent()) >= n {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return len(g.Sent()) >= n
}

// Finder resolves tokens from a fixed table keyed by id, mention or name.
type Finder struct {
	Users map[string]event.Author
}

func NewFinder(users ...event.Author) *Finder {
	f := &Finder{Users: map[string]event.Author{}}
	for _, u := range users {
		f.Users[u.ID] = u
		f.Users[strings.ToLower(u.Username)] = u
		f.Users[u.Mention()] = u
		f.Users["<@!"+u.ID+">"] = u
	}
	return f
}

func (f *Finder) User(_ context.Context, _ string, token string) (event.Author, error) {
	if u, ok := f.Users[token]; ok {
		return u, nil
	}
	if u, ok := f.Users[strings.ToLower(token)]; ok {
		return u, nil
	}
	return event.Author{}, fmt.Errorf("no user matches %q", token)
}

// Env bundles a Services value wired to in-memory collaborators.
type Env struct {
	Gateway *Gateway
	Store   *storagetest.Memory
	Finder  *Finder
	*core.Services
}

// NewEnv returns services with prefix "m!", owner "1" and the given users
// resolvable through the finder.
func NewEnv(users ...event.Author) *Env {
	gw := NewGateway()
	store := storagetest.NewMemory()
	finder := NewFinder(users...)
	cfg := &config.Config{
		Prefix:        "m!",
		OwnerIDs:      []string{"1"},
		StorageDriver: "json",
		SourceURL:     "https://github.com/MaikaBot/Maika",
		SupportInvite: "https://discord.gg/7TtMP2n",
		EmbedColor:    0xcb4a6f,
		MarryTimeout:  time.Second,
	}
	return &Env{
		Gateway: gw,
		Store:   store,
		Finder:  finder,
		Services: &core.Services{
			Gateway:   gw,
			Store:     store,
			Finder:    finder,
			Collector: collector.New(),
			Registry:  core.NewRegistry(zerolog.Nop()),
			Jobs:      jobmgr.NewManager(nil),
			Owners:    core.NewOwnerSet(cfg.OwnerIDs),
			Config:    cfg,
			StartedAt: time.Now().Add(-90 * time.Minute),
			Logger:    zerolog.Nop(),
		},
	}
}

// Guild is a guild text channel in guild "g1".
var Guild = event.Channel{ID: "c1", Type: event.ChannelGuildText, GuildID: "g1"}

// DM is a direct-message channel.
var DM = event.Channel{ID: "d1", Type: event.ChannelDM}

// Message builds an inbound message.
func Message(from event.Author, ch event.Channel, content string) event.Message {
	return event.Message{ID: "in-" + from.ID, Content: content, Author: from, Channel: ch}
}

// Invocation builds an invocation for cmd with the given args, as the
// dispatcher would after a successful lookup.
func (e *Env) Invocation(from event.Author, ch event.Channel, name string, args ...string) *core.Invocation {
	content := e.Config.Prefix + strings.TrimSpace(name+" "+strings.Join(args, " "))
	inv := &core.Invocation{
		ID:       "test-invocation",
		Message:  Message(from, ch, content),
		Args:     args,
		Prefix:   e.Config.Prefix,
		Command:  name,
		Services: e.Services,
	}
	if ch.InGuild() {
		g, err := e.Store.Guild(context.Background(), ch.GuildID)
		if err == nil {
			inv.Guild = &g
		}
	}
	return inv
}
