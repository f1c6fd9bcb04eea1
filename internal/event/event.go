// Package event holds the transport-neutral message shapes shared by the
// dispatcher, the collector and the gateway adapter.
package event

import "fmt"

type ChannelType int

const (
	ChannelGuildText ChannelType = iota
	ChannelDM
	ChannelGroupDM
)

// Author is the sender of a message.
type Author struct {
	ID            string
	Username      string
	Discriminator string
	Bot           bool
}

// Mention renders the user mention the way the chat client does.
func (a Author) Mention() string {
	return fmt.Sprintf("<@%s>", a.ID)
}

// Tag returns username#discriminator, or just the username for accounts
// without a discriminator.
func (a Author) Tag() string {
	if a.Discriminator == "" || a.Discriminator == "0" {
		return a.Username
	}
	return a.Username + "#" + a.Discriminator
}

type Channel struct {
	ID      string
	Type    ChannelType
	GuildID string
}

// InGuild reports whether the channel belongs to a guild.
func (c Channel) InGuild() bool {
	return c.GuildID != "" && c.Type == ChannelGuildText
}

// Message is one inbound (or sent) chat message.
type Message struct {
	ID      string
	Content string
	Author  Author
	Channel Channel
}
