package service

import (
	"context"
	"errors"
	"fmt"

	"lnbot/lnbits"
	"lnbot/models"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoBot means the admin has not registered a bot yet
	ErrNoBot = errors.New("no bot registered")
	// ErrStandalone means the operation only applies to managed bots
	ErrStandalone = errors.New("bot runs standalone")
)

// SettingsStore persists per-admin bot settings
type SettingsStore interface {
	GetByAdmin(ctx context.Context, adminID string) (*models.BotSettings, error)
	GetAll(ctx context.Context) ([]*models.BotSettings, error)
	Create(ctx context.Context, adminID string, data *models.CreateBotSettings) (*models.BotSettings, error)
	Update(ctx context.Context, adminID string, data *models.UpdateBotSettings) (*models.BotSettings, error)
	Delete(ctx context.Context, adminID string) error
}

// BotSupervisor owns the gateway connections of managed bots
type BotSupervisor interface {
	Start(ctx context.Context, settings *models.BotSettings) error
	Stop(settings *models.BotSettings) error
	Restart(ctx context.Context, settings *models.BotSettings) error
	Online(token string) *bool
}

// UserDirectory lists the platform users provisioned through Discord
type UserDirectory interface {
	ListDiscordUsers(ctx context.Context) ([]lnbits.User, error)
}

// BotService ties settings persistence to the connection lifecycle:
// registering a managed bot brings it online, updating restarts it,
// removing it takes it down.
type BotService struct {
	store SettingsStore
	sup   BotSupervisor
	users UserDirectory
}

func NewBotService(store SettingsStore, sup BotSupervisor, users UserDirectory) *BotService {
	return &BotService{store: store, sup: sup, users: users}
}

// GetBot returns the admin's bot with its liveness, or nil when none is
// registered.
func (s *BotService) GetBot(ctx context.Context, adminID string) (*models.BotInfo, error) {
	settings, err := s.store.GetByAdmin(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot settings: %w", err)
	}
	if settings == nil {
		return nil, nil
	}
	return s.info(settings), nil
}

// CreateBot registers a bot and, unless it is standalone, brings it
// online. A start failure does not roll back the registration; the
// admin can retry via the start endpoint.
func (s *BotService) CreateBot(ctx context.Context, adminID string, data *models.CreateBotSettings) (*models.BotInfo, error) {
	settings, err := s.store.Create(ctx, adminID, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store bot settings: %w", err)
	}

	if !settings.Standalone {
		if err := s.sup.Start(ctx, settings); err != nil {
			log.WithFields(log.Fields{"admin": adminID, "error": err}).Warn("Bot registered but failed to start")
		}
	}
	return s.info(settings), nil
}

// UpdateBot patches the stored settings. A token change takes the old
// connection down first; a managed bot is restarted on the new settings.
func (s *BotService) UpdateBot(ctx context.Context, adminID string, data *models.UpdateBotSettings) (*models.BotInfo, error) {
	current, err := s.store.GetByAdmin(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot settings: %w", err)
	}
	if current == nil {
		return nil, ErrNoBot
	}

	if data.Token != nil && *data.Token != current.Token {
		if err := s.sup.Stop(current); err != nil {
			log.WithFields(log.Fields{"admin": adminID, "error": err}).Warn("Failed to stop bot on old token")
		}
	}

	updated, err := s.store.Update(ctx, adminID, data)
	if err != nil {
		return nil, fmt.Errorf("failed to update bot settings: %w", err)
	}

	if !updated.Standalone {
		if err := s.sup.Restart(ctx, updated); err != nil {
			log.WithFields(log.Fields{"admin": adminID, "error": err}).Warn("Bot updated but failed to restart")
		}
	} else {
		if err := s.sup.Stop(updated); err != nil {
			log.WithFields(log.Fields{"admin": adminID, "error": err}).Warn("Failed to stop bot switched to standalone")
		}
	}
	return s.info(updated), nil
}

// DeleteBot takes the bot offline and removes its settings. This is
// also the uninstall path for the whole extension surface.
func (s *BotService) DeleteBot(ctx context.Context, adminID string) error {
	settings, err := s.store.GetByAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to load bot settings: %w", err)
	}
	if settings == nil {
		return ErrNoBot
	}

	if err := s.sup.Stop(settings); err != nil {
		log.WithFields(log.Fields{"admin": adminID, "error": err}).Warn("Failed to stop bot during delete")
	}
	if err := s.store.Delete(ctx, adminID); err != nil {
		return fmt.Errorf("failed to delete bot settings: %w", err)
	}
	return nil
}

// StartBot brings a registered managed bot online
func (s *BotService) StartBot(ctx context.Context, adminID string) (*models.BotInfo, error) {
	settings, err := s.requireManaged(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if err := s.sup.Start(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to start bot: %w", err)
	}
	return s.info(settings), nil
}

// StopBot takes a registered managed bot offline
func (s *BotService) StopBot(ctx context.Context, adminID string) (*models.BotInfo, error) {
	settings, err := s.requireManaged(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if err := s.sup.Stop(settings); err != nil {
		return nil, fmt.Errorf("failed to stop bot: %w", err)
	}
	return s.info(settings), nil
}

// ListUsers returns every platform user that was provisioned through
// Discord, with the Discord identity unpacked from the extra attributes.
func (s *BotService) ListUsers(ctx context.Context) ([]*models.DiscordUser, error) {
	platformUsers, err := s.users.ListDiscordUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*models.DiscordUser, 0, len(platformUsers))
	for _, u := range platformUsers {
		du := &models.DiscordUser{
			ID:        u.ID,
			Name:      u.Name,
			Admin:     u.Admin,
			DiscordID: u.Extra["discord_id"],
		}
		if avatar := u.Extra["discord_avatar_url"]; avatar != "" {
			du.AvatarURL = &avatar
		}
		users = append(users, du)
	}
	return users, nil
}

func (s *BotService) requireManaged(ctx context.Context, adminID string) (*models.BotSettings, error) {
	settings, err := s.store.GetByAdmin(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot settings: %w", err)
	}
	if settings == nil {
		return nil, ErrNoBot
	}
	if settings.Standalone {
		return nil, ErrStandalone
	}
	return settings, nil
}

func (s *BotService) info(settings *models.BotSettings) *models.BotInfo {
	var online *bool
	if !settings.Standalone {
		online = s.sup.Online(settings.Token)
	}
	return models.NewBotInfo(settings, online)
}
