package models

// DiscordUser joins a platform user record with its Discord identity
// metadata, as served by the extension's users endpoint.
type DiscordUser struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Admin     string  `json:"admin"`
	DiscordID string  `json:"discord_id"`
	AvatarURL *string `json:"avatar_url"`
}
