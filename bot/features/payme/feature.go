package payme

import (
	"sync"

	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
)

// request is an open invoice waiting for someone to hit Pay Now,
// keyed by the message carrying the button.
type request struct {
	receiver *discordgo.User
	bolt11   string
	amount   int64
	memo     string
}

type Feature struct {
	api     *lnbits.Client
	dataDir string

	mu       sync.Mutex
	requests map[string]request
}

func New(api *lnbits.Client, dataDir string) *Feature {
	return &Feature{
		api:      api,
		dataDir:  dataDir,
		requests: make(map[string]request),
	}
}

func (f *Feature) Command() *discordgo.ApplicationCommand {
	minAmount := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        "payme",
		Description: "Request a payment into your wallet",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "Amount in Satoshis",
				Required:    true,
				MinValue:    &minAmount,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "description",
				Description: "What the payment is for",
				Required:    false,
			},
		},
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handlePayme(s, i)
}

func (f *Feature) ComponentPrefix() string {
	return "payme_pay"
}

func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handlePay(s, i)
}

func (f *Feature) rememberRequest(messageID string, r request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[messageID] = r
}

func (f *Feature) takeRequest(messageID string) (request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[messageID]
	if ok {
		delete(f.requests, messageID)
	}
	return r, ok
}

func (f *Feature) restoreRequest(messageID string, r request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[messageID] = r
}
