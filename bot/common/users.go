package common

import (
	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
)

// InteractionUser returns the invoking user for guild and DM interactions alike
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// IdentityOf maps a Discord user onto the platform's identity reference
func IdentityOf(u *discordgo.User) lnbits.Identity {
	return lnbits.Identity{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL(""),
	}
}

// RequireGuild rejects interactions outside a guild. Returns false after
// responding when the check fails.
func RequireGuild(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.GuildID == "" {
		RespondWithError(s, i, "This command can only be used in a server.")
		return false
	}
	return true
}
