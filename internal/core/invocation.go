package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"maika/internal/collector"
	"maika/internal/config"
	"maika/internal/event"
	"maika/internal/storage"
	"maika/pkg/jobmgr"
)

// Gateway is the chat client as seen by commands.
type Gateway interface {
	Self() event.Author
	Ready() bool

	Send(ctx context.Context, channelID, content string) (event.Message, error)
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (event.Message, error)
	Edit(ctx context.Context, msg event.Message, content string) (event.Message, error)
	EditEmbed(ctx context.Context, msg event.Message, embed *discordgo.MessageEmbed) (event.Message, error)
	Delete(ctx context.Context, msg event.Message) error

	Stats() Stats
	Shards() []ShardInfo
	ShardOf(guildID string) int
	CanManageGuild(guildID, userID string) bool
	SetMaintenance(on bool) error
}

// Stats are cache counts reported by the gateway.
type Stats struct {
	Guilds   int
	Users    int
	Channels int
}

type ShardInfo struct {
	ID      int
	Latency time.Duration
	Status  string
}

// Finder resolves a user token (mention, id or name) to a user.
type Finder interface {
	User(ctx context.Context, guildID, token string) (event.Author, error)
}

// OwnerSet holds the authorized operator ids.
type OwnerSet map[string]struct{}

func NewOwnerSet(ids []string) OwnerSet {
	s := make(OwnerSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s OwnerSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Services are the process-wide collaborators shared by every invocation.
type Services struct {
	Gateway   Gateway
	Store     storage.Store
	Finder    Finder
	Collector *collector.Collector
	Registry  *Registry
	Jobs      *jobmgr.Manager
	Owners    OwnerSet
	Config    *config.Config
	StartedAt time.Time
	Logger    zerolog.Logger
}

// Invocation is the per-message command context. It is built fresh for each
// dispatched command and discarded afterwards.
type Invocation struct {
	ID      string
	Message event.Message
	Args    []string
	Prefix  string
	Command string

	// Guild is the provisioned record of the invoking guild, nil outside
	// guilds.
	Guild *storage.GuildRecord

	*Services
}

// Sender is the author of the triggering message.
func (inv *Invocation) Sender() event.Author { return inv.Message.Author }

func (inv *Invocation) ChannelID() string { return inv.Message.Channel.ID }

func (inv *Invocation) GuildID() string { return inv.Message.Channel.GuildID }

func (inv *Invocation) InGuild() bool { return inv.Message.Channel.InGuild() }

// IsOwner reports whether the sender is an authorized operator.
func (inv *Invocation) IsOwner() bool { return inv.Owners.Has(inv.Sender().ID) }

// Arg returns the i-th positional argument or "".
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

// Reply sends text to the invocation channel.
func (inv *Invocation) Reply(ctx context.Context, text string) (event.Message, error) {
	return inv.Gateway.Send(ctx, inv.ChannelID(), text)
}

// Replyf sends "**username**: text", the house style for short answers.
func (inv *Invocation) Replyf(ctx context.Context, format string, args ...any) (event.Message, error) {
	return inv.Reply(ctx, fmt.Sprintf("**%s**: %s", inv.Sender().Username, fmt.Sprintf(format, args...)))
}

// Embed sends an embed, applying the configured colour if none is set.
func (inv *Invocation) Embed(ctx context.Context, embed *discordgo.MessageEmbed) (event.Message, error) {
	inv.colour(embed)
	return inv.Gateway.SendEmbed(ctx, inv.ChannelID(), embed)
}

// EditEmbed replaces the embed of a message sent earlier.
func (inv *Invocation) EditEmbed(ctx context.Context, msg event.Message, embed *discordgo.MessageEmbed) (event.Message, error) {
	inv.colour(embed)
	return inv.Gateway.EditEmbed(ctx, msg, embed)
}

func (inv *Invocation) colour(embed *discordgo.MessageEmbed) {
	if embed.Color == 0 && inv.Config != nil {
		embed.Color = inv.Config.EmbedColor
	}
}

// Code sends text inside a fenced code block.
func (inv *Invocation) Code(ctx context.Context, lang, text string) (event.Message, error) {
	return inv.Reply(ctx, CodeBlock(lang, text))
}

func (inv *Invocation) Edit(ctx context.Context, msg event.Message, text string) (event.Message, error) {
	return inv.Gateway.Edit(ctx, msg, text)
}

func (inv *Invocation) Delete(ctx context.Context, msg event.Message) error {
	return inv.Gateway.Delete(ctx, msg)
}

// Rejectf returns a UserError addressed to the sender.
func (inv *Invocation) Rejectf(format string, args ...any) error {
	return Rejectf(format, args...)
}

// CodeBlock fences text for the chat client.
func CodeBlock(lang, text string) string {
	return "```" + lang + "\n" + text + "\n```"
}
