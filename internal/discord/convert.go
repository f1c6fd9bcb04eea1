package discord

import (
	"github.com/bwmarrin/discordgo"

	"maika/internal/event"
)

func toAuthor(u *discordgo.User) event.Author {
	if u == nil {
		return event.Author{}
	}
	return event.Author{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		Bot:           u.Bot,
	}
}

func (b *Bot) toMessage(m *discordgo.Message) event.Message {
	return event.Message{
		ID:      m.ID,
		Content: m.Content,
		Author:  toAuthor(m.Author),
		Channel: b.channel(m.ChannelID, m.GuildID),
	}
}

// channel classifies a channel from the state cache, falling back to the
// presence of a guild id.
func (b *Bot) channel(channelID, guildID string) event.Channel {
	ch := event.Channel{ID: channelID, GuildID: guildID}
	if c, err := b.session.State.Channel(channelID); err == nil && c != nil {
		if ch.GuildID == "" {
			ch.GuildID = c.GuildID
		}
		ch.Type = channelType(c.Type, ch.GuildID)
		return ch
	}
	if guildID == "" {
		ch.Type = event.ChannelDM
	}
	return ch
}

func channelType(t discordgo.ChannelType, guildID string) event.ChannelType {
	switch t {
	case discordgo.ChannelTypeDM:
		return event.ChannelDM
	case discordgo.ChannelTypeGroupDM:
		return event.ChannelGroupDM
	}
	if guildID == "" {
		return event.ChannelDM
	}
	return event.ChannelGuildText
}
