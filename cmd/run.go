package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"lnbot/api"
	"lnbot/bot"
	"lnbot/config"
	"lnbot/database"
	"lnbot/lnbits"
	"lnbot/models"
	"lnbot/repository"
	"lnbot/service"
	"lnbot/supervisor"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting discord bot extension...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize repositories
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize wallet platform client
	log.Println("Initializing wallet platform client...")
	platform := lnbits.NewClient(cfg.LnbitsURL, cfg.LnbitsAdminKey, nil)

	// Initialize bot supervisor
	log.Println("Initializing bot supervisor...")
	botConfig := bot.Config{
		DevGuildID: cfg.DiscordDevGuildID,
		DataDir:    cfg.DataDir,
	}
	sup := supervisor.New(func(settings *models.BotSettings) (supervisor.Connection, error) {
		return bot.New(botConfig, settings, platform, settingsRepo)
	})

	// Initialize services
	botService := service.NewBotService(settingsRepo, sup, platform)

	// Start the extension API
	log.Printf("Starting API server on %s...", cfg.ListenAddr)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(botService, cfg.LnbitsAdminKey),
	}
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Bring every managed bot online
	all, err := settingsRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bot settings: %w", err)
	}
	go sup.LaunchAll(ctx, all)

	log.Printf("Extension is running in %s mode...", cfg.Environment)
	select {
	case err := <-serverErr:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}

	// Take every gateway connection down
	sup.Shutdown()

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
