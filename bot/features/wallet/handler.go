package wallet

import (
	"context"

	"lnbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	user := common.InteractionUser(i)

	wallet, err := f.api.GetOrCreateWallet(ctx, common.IdentityOf(user))
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "You have a wallet!",
			Components: common.WalletLinkButton(f.api, wallet),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error responding to create command: %v", err)
	}
}
