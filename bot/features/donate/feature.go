package donate

import (
	"sync"

	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
)

// donation is an unclaimed withdraw link, keyed by the message carrying
// its Claim button. The link is single use, so a successful claim
// removes the entry.
type donation struct {
	donor  *discordgo.User
	lnurl  string
	amount int64
}

type Feature struct {
	api *lnbits.Client

	mu        sync.Mutex
	donations map[string]donation
}

func New(api *lnbits.Client) *Feature {
	return &Feature{
		api:       api,
		donations: make(map[string]donation),
	}
}

func (f *Feature) Command() *discordgo.ApplicationCommand {
	minAmount := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        "donate",
		Description: "Donate funds as a claimable voucher",
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
				Description: "What the donation is for",
				Required:    false,
			},
		},
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleDonate(s, i)
}

func (f *Feature) ComponentPrefix() string {
	return "donate_claim"
}

func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleClaim(s, i)
}

func (f *Feature) rememberDonation(messageID string, d donation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.donations[messageID] = d
}

func (f *Feature) takeDonation(messageID string) (donation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.donations[messageID]
	if ok {
		delete(f.donations, messageID)
	}
	return d, ok
}

func (f *Feature) restoreDonation(messageID string, d donation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.donations[messageID] = d
}
