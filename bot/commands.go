package bot

import "fmt"

// registerCommands registers every feature's command globally and, when
// a dev guild is configured, mirrors it there for fast iteration.
func (b *Bot) registerCommands() error {
	for name, feature := range b.features {
		cmd := feature.Command()
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd); err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", name, err)
		}
		if b.config.DevGuildID != "" {
			if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.DevGuildID, cmd); err != nil {
				return fmt.Errorf("cannot create '%s' command in dev guild: %w", name, err)
			}
		}
	}
	return nil
}
