// Package discord adapts a discordgo session to the dispatcher: it converts
// gateway events, feeds the collector and implements core.Gateway.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"maika/internal/collector"
	"maika/internal/config"
	"maika/internal/event"
	"maika/pkg/retrylimit"
)

// Handler receives every converted inbound message.
type Handler interface {
	Handle(ctx context.Context, msg event.Message)
}

// Bot is a Discord bot
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config
	logger  zerolog.Logger

	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig

	mu   sync.RWMutex
	self event.Author

	ready       atomic.Bool
	maintenance atomic.Bool

	// set by Run
	ctx       context.Context
	collector *collector.Collector
	handler   Handler
	inflight  sync.WaitGroup
}

// New creates the session without connecting.
func New(cfg *config.Config, logger zerolog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return newBot(dg, cfg, logger), nil
}

func newBot(dg *discordgo.Session, cfg *config.Config, logger zerolog.Logger) *Bot {
	logger = logger.With().Str("component", "discord").Logger()
	retry := retrylimit.DefaultRetryConfig()
	retry.Logger = logger

	b := &Bot{
		session: dg,
		cfg:     cfg,
		logger:  logger,
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		retry:   retry,
		ctx:     context.Background(),
	}
	b.configureIntents()
	return b
}

// configureIntents configures the Discord intents
func (b *Bot) configureIntents() {
	b.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
	// Handlers run on the gateway goroutine so the collector sees messages
	// in delivery order; dispatch itself is moved off it.
	b.session.SyncEvents = true
}

// Run connects, feeds events to col and h until ctx is done, then waits for
// in-flight dispatches and closes the session.
func (b *Bot) Run(ctx context.Context, col *collector.Collector, h Handler) error {
	if col == nil || h == nil {
		return errors.New("discord: collector and handler are required")
	}
	b.ctx = ctx
	b.collector = col
	b.handler = h

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onResumed)
	b.session.AddHandler(b.onDisconnect)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	b.logger.Info().Msg("shutdown signal received, waiting for in-flight commands")
	b.ready.Store(false)
	b.inflight.Wait()

	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// onReady is called when the bot is ready
func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.mu.Lock()
	b.self = toAuthor(r.User)
	b.mu.Unlock()
	b.ready.Store(true)

	b.logger.Info().
		Str("user", b.Self().Tag()).
		Int("guilds", len(r.Guilds)).
		Int("shard", b.session.ShardID).
		Msg("discord bot is running")
}

func (b *Bot) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	b.ready.Store(true)
	b.logger.Info().Msg("session resumed")
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.ready.Store(false)
	b.logger.Warn().Msg("session disconnected")
}

// onGuildCreate is called when a guild becomes available
func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.logger.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
}

// onMessageCreate offers the message to pending collectors, then dispatches
// it on its own goroutine. A message consumed by a collector is still
// dispatched. Offers happen in gateway order; dispatches of messages from the
// same channel may start in any order.
func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	msg := b.toMessage(m.Message)
	if b.collector.Offer(msg) {
		b.logger.Debug().Str("channel", msg.Channel.ID).Str("user", msg.Author.ID).Msg("reply collected")
	}

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.handler.Handle(b.ctx, msg)
	}()
}

// Self is the bot account, zero until the first Ready.
func (b *Bot) Self() event.Author {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.self
}

func (b *Bot) Ready() bool { return b.ready.Load() }
