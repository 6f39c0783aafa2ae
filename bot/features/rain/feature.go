package rain

import (
	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
)

type Feature struct {
	api *lnbits.Client
}

func New(api *lnbits.Client) *Feature {
	return &Feature{api: api}
}

func (f *Feature) Command() *discordgo.ApplicationCommand {
	minAmount := float64(1)
	minUsers := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        "rain",
		Description: "Make it rain sats on random server members",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "Amount in Satoshis each recipient gets",
				Required:    true,
				MinValue:    &minAmount,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "users",
				Description: "How many members to pay",
				Required:    true,
				MinValue:    &minUsers,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "description",
				Description: "Note to attach to the payments",
				Required:    false,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "roles",
				Description: "Limit recipients to these role mentions",
				Required:    false,
			},
		},
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleRain(s, i)
}
