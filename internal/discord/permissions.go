package discord

import (
	"github.com/bwmarrin/discordgo"
)

// CanManageGuild reports whether a member owns the guild or holds a role
// with Administrator or Manage Server.
func (b *Bot) CanManageGuild(guildID, userID string) bool {
	s := b.session
	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil {
		return false
	}
	if userID == guild.OwnerID {
		return true
	}

	member, err := s.State.Member(guildID, userID)
	if err != nil || member == nil {
		member, err = s.GuildMember(guildID, userID)
		if err != nil || member == nil {
			return false
		}
	}

	const want = discordgo.PermissionAdministrator | discordgo.PermissionManageGuild
	// @everyone shares the guild id.
	roles := append([]string{guildID}, member.Roles...)
	for _, roleID := range roles {
		if role, _ := s.State.Role(guildID, roleID); role != nil {
			if role.Permissions&want != 0 {
				return true
			}
		}
	}
	return false
}
