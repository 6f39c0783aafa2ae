package coinflip

import (
	"errors"
	"sync"

	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
)

var (
	errNotInitiator     = errors.New("only the initiator can flip")
	errAlreadyFlipped   = errors.New("coin already flipped")
	errNotEnoughPlayers = errors.New("need at least two players")
)

type Feature struct {
	api *lnbits.Client

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(api *lnbits.Client) *Feature {
	return &Feature{
		api:      api,
		sessions: make(map[string]*Session),
	}
}

func (f *Feature) Command() *discordgo.ApplicationCommand {
	minAmount := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        "coinflip",
		Description: "Start a winner-takes-all coinflip",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "Ticket price per entry in Satoshis",
				Required:    true,
				MinValue:    &minAmount,
			},
		},
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleStart(s, i)
}

func (f *Feature) ComponentPrefix() string {
	return "coinflip_"
}

func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.MessageComponentData().CustomID {
	case "coinflip_join":
		f.handleJoin(s, i)
	case "coinflip_flip":
		f.handleFlip(s, i)
	}
}

func (f *Feature) rememberSession(messageID string, session *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[messageID] = session
}

func (f *Feature) sessionFor(messageID string) (*Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[messageID]
	return session, ok
}

func (f *Feature) forgetSession(messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, messageID)
}
