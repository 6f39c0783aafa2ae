package wallet

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
		Name:        "create",
		Description: "Create a wallet for your user",
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleCreate(s, i)
}
