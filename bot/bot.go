package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"lnbot/bot/features/balance"
	"lnbot/bot/features/coinflip"
	"lnbot/bot/features/donate"
	"lnbot/bot/features/payme"
	"lnbot/bot/features/rain"
	"lnbot/bot/features/tip"
	"lnbot/bot/features/wallet"
	"lnbot/lnbits"
	"lnbot/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	// DevGuildID mirrors global commands into one guild so they show up
	// without the global propagation delay
	DevGuildID string
	// DataDir is the scratch directory for QR image rendering
	DataDir string
}

// Feature is one slash command: its definition and its handler
type Feature interface {
	Command() *discordgo.ApplicationCommand
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// ComponentFeature additionally handles button clicks, routed by the
// custom ID prefix the feature stamps on its components
type ComponentFeature interface {
	Feature
	ComponentPrefix() string
	HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// SettingsUpdater lets the bot write its observed profile back to the
// stored settings once the gateway reports who it logged in as
type SettingsUpdater interface {
	Update(ctx context.Context, adminID string, data *models.UpdateBotSettings) (*models.BotSettings, error)
}

// Bot is one admin's Discord connection plus its command set
type Bot struct {
	config   Config
	settings *models.BotSettings
	session  *discordgo.Session
	api      *lnbits.Client
	store    SettingsUpdater

	features map[string]Feature

	readyOnce sync.Once
	readyCh   chan struct{}
	closed    atomic.Bool
}

// New creates an unopened bot for one admin's settings. The gateway
// connection is established by Open, readiness arrives via WaitReady.
func New(config Config, settings *models.BotSettings, api *lnbits.Client, store SettingsUpdater) (*Bot, error) {
	dg, err := discordgo.New("Bot " + settings.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsGuildMembers

	bot := &Bot{
		config:   config,
		settings: settings,
		session:  dg,
		api:      api,
		store:    store,
		readyCh:  make(chan struct{}),
	}

	bot.features = commandTable(
		wallet.New(api),
		balance.New(api),
		tip.New(api),
		donate.New(api),
		payme.New(api, config.DataDir),
		rain.New(api),
		coinflip.New(api),
	)

	dg.AddHandler(bot.onReady)
	dg.AddHandler(bot.handleInteraction)

	return bot, nil
}

// commandTable maps command names to their features
func commandTable(features ...Feature) map[string]Feature {
	table := make(map[string]Feature, len(features))
	for _, f := range features {
		table[f.Command().Name] = f
	}
	return table
}

// Open connects to the gateway and registers the command set
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}
	return nil
}

// Close tears down the gateway connection
func (b *Bot) Close() error {
	b.closed.Store(true)
	return b.session.Close()
}

// Alive reports whether the connection has not been closed
func (b *Bot) Alive() bool {
	return !b.closed.Load()
}

// Ready reports whether the gateway has delivered its ready event
func (b *Bot) Ready() bool {
	select {
	case <-b.readyCh:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the ready event or ctx expiry
func (b *Bot) WaitReady(ctx context.Context) error {
	select {
	case <-b.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session exposes the underlying gateway session
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Infof("Logged in as %s (ID: %s)", r.User.Username, r.User.ID)
	b.readyOnce.Do(func() { close(b.readyCh) })

	// Write the observed profile back to the stored settings so the
	// extension UI can show who this token belongs to. Best-effort.
	if b.store != nil {
		name := r.User.Username
		avatarURL := r.User.AvatarURL("")
		_, err := b.store.Update(context.Background(), b.settings.Admin, &models.UpdateBotSettings{
			Name:      &name,
			AvatarURL: &avatarURL,
		})
		if err != nil {
			log.Warnf("Failed to store bot profile for admin %s: %v", b.settings.Admin, err)
		}
	}
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if feature, ok := b.features[i.ApplicationCommandData().Name]; ok {
			feature.HandleCommand(s, i)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		for _, feature := range b.features {
			cf, ok := feature.(ComponentFeature)
			if !ok {
				continue
			}
			if matchesPrefix(customID, cf.ComponentPrefix()) {
				cf.HandleComponent(s, i)
				return
			}
		}
	}
}

func matchesPrefix(customID, prefix string) bool {
	return len(customID) >= len(prefix) && customID[:len(prefix)] == prefix
}
