package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lnbot/database"
	"lnbot/models"

	"github.com/jackc/pgx/v5"
)

// SettingsRepository persists bot settings, one row per admin
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const settingsColumns = "admin, token, name, avatar_url, standalone, created_at, updated_at"

func scanSettings(row pgx.Row) (*models.BotSettings, error) {
	var s models.BotSettings
	err := row.Scan(&s.Admin, &s.Token, &s.Name, &s.AvatarURL, &s.Standalone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan bot settings: %w", err)
	}
	return &s, nil
}

// GetByAdmin retrieves the settings for one admin, nil when absent
func (r *SettingsRepository) GetByAdmin(ctx context.Context, adminID string) (*models.BotSettings, error) {
	query := fmt.Sprintf("SELECT %s FROM bots WHERE admin = $1", settingsColumns)
	return scanSettings(r.db.QueryRow(ctx, query, adminID))
}

// GetAll retrieves every registered bot's settings
func (r *SettingsRepository) GetAll(ctx context.Context) ([]*models.BotSettings, error) {
	query := fmt.Sprintf("SELECT %s FROM bots ORDER BY created_at", settingsColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bot settings: %w", err)
	}
	defer rows.Close()

	var all []*models.BotSettings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, rows.Err()
}

// Create registers a bot for an admin. Re-registering replaces the token
// and resets the standalone flag, keeping one row per admin.
func (r *SettingsRepository) Create(ctx context.Context, adminID string, data *models.CreateBotSettings) (*models.BotSettings, error) {
	query := fmt.Sprintf(`
		INSERT INTO bots (admin, token, standalone)
		VALUES ($1, $2, $3)
		ON CONFLICT (admin) DO UPDATE
			SET token = EXCLUDED.token,
			    standalone = EXCLUDED.standalone,
			    updated_at = NOW()
		RETURNING %s`, settingsColumns)
	return scanSettings(r.db.QueryRow(ctx, query, adminID, data.Token, data.Standalone))
}

// Update applies a partial settings update; nil fields stay unchanged
func (r *SettingsRepository) Update(ctx context.Context, adminID string, data *models.UpdateBotSettings) (*models.BotSettings, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{adminID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if data.Token != nil {
		addSet("token", *data.Token)
	}
	if data.Name != nil {
		addSet("name", *data.Name)
	}
	if data.AvatarURL != nil {
		addSet("avatar_url", *data.AvatarURL)
	}
	if data.Standalone != nil {
		addSet("standalone", *data.Standalone)
	}

	query := fmt.Sprintf("UPDATE bots SET %s WHERE admin = $1 RETURNING %s",
		strings.Join(sets, ", "), settingsColumns)
	return scanSettings(r.db.QueryRow(ctx, query, args...))
}

// Delete removes an admin's bot registration
func (r *SettingsRepository) Delete(ctx context.Context, adminID string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM bots WHERE admin = $1", adminID)
	if err != nil {
		return fmt.Errorf("failed to delete bot settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no bot settings for admin %s", adminID)
	}
	return nil
}
