package tip

import (
	"sync"

	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
)

// repeatParams is what a Repeat click needs to replay a tip with the
// clicker as the new sender. Keyed by the message the button sits on.
type repeatParams struct {
	receiver *discordgo.User
	amount   int64
	memo     string
}

type Feature struct {
	api *lnbits.Client

	mu      sync.Mutex
	repeats map[string]repeatParams
}

func New(api *lnbits.Client) *Feature {
	return &Feature{
		api:     api,
		repeats: make(map[string]repeatParams),
	}
}

func (f *Feature) Command() *discordgo.ApplicationCommand {
	minAmount := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        "tip",
		Description: "Send some funds to another user",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "member",
				Description: "Who to tip",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "Amount in Satoshis",
				Required:    true,
				MinValue:    &minAmount,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "memo",
				Description: "Note to attach to the payment",
				Required:    false,
			},
		},
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleTip(s, i)
}

func (f *Feature) ComponentPrefix() string {
	return "tip_repeat"
}

func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleRepeat(s, i)
}

func (f *Feature) rememberRepeat(messageID string, params repeatParams) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repeats[messageID] = params
}

func (f *Feature) repeatFor(messageID string) (repeatParams, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	params, ok := f.repeats[messageID]
	return params, ok
}
