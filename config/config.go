package config

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Wallet platform
	LnbitsURL      string `env:"LNBITS_URL" envDefault:"http://localhost:5000"`
	LnbitsAdminKey string `env:"LNBITS_ADMIN_KEY"`

	// Discord. Commands registered globally are mirrored into the dev
	// guild when set, so they show up without the propagation delay.
	DiscordDevGuildID string `env:"DISCORD_DEV_GUILD_ID"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Extension API surface
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8088"`

	// Local scratch directory for QR image rendering
	DataDir string `env:"DATA_DIR" envDefault:"/data"`

	// Environment: "development", "production" or "test"
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine, the process environment wins either way.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.Environment != "test" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.LnbitsAdminKey == "" {
			return nil, fmt.Errorf("LNBITS_ADMIN_KEY is required")
		}
	}

	return cfg, nil
}
