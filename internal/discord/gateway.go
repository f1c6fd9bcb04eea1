package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"maika/internal/core"
	"maika/internal/event"
	"maika/pkg/retrylimit"
)

var _ core.Gateway = (*Bot)(nil)

func (b *Bot) Send(ctx context.Context, channelID, content string) (event.Message, error) {
	var sent *discordgo.Message
	err := b.call(ctx, func() (err error) {
		sent, err = b.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return event.Message{}, fmt.Errorf("send to %s: %w", channelID, err)
	}
	return b.sentMessage(sent, channelID), nil
}

func (b *Bot) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (event.Message, error) {
	var sent *discordgo.Message
	err := b.call(ctx, func() (err error) {
		sent, err = b.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return event.Message{}, fmt.Errorf("send embed to %s: %w", channelID, err)
	}
	return b.sentMessage(sent, channelID), nil
}

func (b *Bot) Edit(ctx context.Context, msg event.Message, content string) (event.Message, error) {
	var edited *discordgo.Message
	err := b.call(ctx, func() (err error) {
		edited, err = b.session.ChannelMessageEdit(msg.Channel.ID, msg.ID, content, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return event.Message{}, fmt.Errorf("edit %s: %w", msg.ID, err)
	}
	return b.sentMessage(edited, msg.Channel.ID), nil
}

func (b *Bot) EditEmbed(ctx context.Context, msg event.Message, embed *discordgo.MessageEmbed) (event.Message, error) {
	var edited *discordgo.Message
	err := b.call(ctx, func() (err error) {
		edited, err = b.session.ChannelMessageEditEmbed(msg.Channel.ID, msg.ID, embed, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return event.Message{}, fmt.Errorf("edit embed %s: %w", msg.ID, err)
	}
	return b.sentMessage(edited, msg.Channel.ID), nil
}

func (b *Bot) Delete(ctx context.Context, msg event.Message) error {
	err := b.call(ctx, func() error {
		return b.session.ChannelMessageDelete(msg.Channel.ID, msg.ID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", msg.ID, err)
	}
	return nil
}

// call runs a REST request through the adaptive limiter. Client errors other
// than 429 are not retried.
func (b *Bot) call(ctx context.Context, fn func() error) error {
	return retrylimit.WithRetryConfig(ctx, func() error {
		err := fn()
		return retrylimit.Classify(err, restStatus(err))
	}, b.limiter, b.retry)
}

func restStatus(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

func (b *Bot) sentMessage(m *discordgo.Message, channelID string) event.Message {
	if m == nil {
		return event.Message{Channel: b.channel(channelID, "")}
	}
	if m.ChannelID == "" {
		m.ChannelID = channelID
	}
	return b.toMessage(m)
}

// Stats counts what the state cache knows about.
func (b *Bot) Stats() core.Stats {
	st := b.session.State
	st.RLock()
	defer st.RUnlock()

	var s core.Stats
	s.Guilds = len(st.Guilds)
	for _, g := range st.Guilds {
		s.Users += g.MemberCount
		s.Channels += len(g.Channels)
	}
	s.Channels += len(st.PrivateChannels)
	return s
}

// Shards reports the session's own shard; one session runs one shard.
func (b *Bot) Shards() []core.ShardInfo {
	status := "connecting"
	switch {
	case b.maintenance.Load():
		status = "maintenance"
	case b.Ready():
		status = "ready"
	}
	return []core.ShardInfo{{
		ID:      b.session.ShardID,
		Latency: b.session.HeartbeatLatency(),
		Status:  status,
	}}
}

func (b *Bot) ShardOf(guildID string) int {
	return shardOf(guildID, b.session.ShardCount)
}

// shardOf applies the gateway sharding formula (guild_id >> 22) % count.
func shardOf(guildID string, count int) int {
	if count <= 1 {
		return 0
	}
	id, err := strconv.ParseUint(guildID, 10, 64)
	if err != nil {
		return 0
	}
	return int((id >> 22) % uint64(count))
}

// SetMaintenance switches the presence between online and do-not-disturb.
func (b *Bot) SetMaintenance(on bool) error {
	status, name := "online", fmt.Sprintf("%shelp", b.cfg.Prefix)
	if on {
		status, name = "dnd", "Maintenance"
	}
	err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: status,
		Activities: []*discordgo.Activity{{
			Name: name,
			Type: discordgo.ActivityTypeGame,
		}},
	})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	b.maintenance.Store(on)
	b.logger.Info().Bool("on", on).Msg("maintenance toggled")
	return nil
}
