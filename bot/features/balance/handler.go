package balance

import (
	"context"
	"fmt"

	"lnbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	user := common.InteractionUser(i)
	identity := common.IdentityOf(user)

	// Wallet provisioning can take a moment on first use
	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring balance response: %v", err)
		return
	}

	wallet, err := f.api.GetOrCreateWallet(ctx, identity)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	sats, err := f.api.GetUserBalance(ctx, identity)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	_, err = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content:    fmt.Sprintf("Your balance: **%s**", common.AmountString(sats)),
		Components: common.WalletLinkButton(f.api, wallet),
		Flags:      discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error responding to balance command: %v", err)
	}
}
