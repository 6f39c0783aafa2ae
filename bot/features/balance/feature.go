package balance

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
	return &discordgo.ApplicationCommand{
		Name:        "balance",
		Description: "Check the balance of your wallet",
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleBalance(s, i)
}
