package models

import "time"

// BotSettings is the persisted configuration for one admin's bot. A
// standalone bot runs as an external process and only fetches its
// credentials here; a managed bot's connection is owned by the supervisor.
type BotSettings struct {
	Admin      string    `json:"admin"`
	Token      string    `json:"token"`
	Name       *string   `json:"name"`
	AvatarURL  *string   `json:"avatar_url"`
	Standalone bool      `json:"standalone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateBotSettings is the payload for registering a bot
type CreateBotSettings struct {
	Token      string `json:"token"`
	Standalone bool   `json:"standalone"`
}

// UpdateBotSettings is the PATCH payload; nil fields are left unchanged
type UpdateBotSettings struct {
	Token      *string `json:"token"`
	Name       *string `json:"name"`
	AvatarURL  *string `json:"avatar_url"`
	Standalone *bool   `json:"standalone"`
}

// BotInfo is BotSettings plus the supervisor's view of the connection.
// Online is nil for standalone bots, whose liveness is unknown here.
type BotInfo struct {
	BotSettings
	Online *bool `json:"online"`
}

// NewBotInfo builds a BotInfo from settings and a liveness query result
func NewBotInfo(settings *BotSettings, online *bool) *BotInfo {
	return &BotInfo{
		BotSettings: *settings,
		Online:      online,
	}
}
