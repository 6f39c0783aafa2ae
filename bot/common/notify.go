package common

import (
	"context"
	"fmt"

	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// WalletLinkButton builds the link button pointing at a wallet on the platform
func WalletLinkButton(api *lnbits.Client, wallet *lnbits.Wallet) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: "Go to my wallet",
					Style: discordgo.LinkButton,
					Emoji: &discordgo.ComponentEmoji{Name: "💰"},
					URL:   api.WalletURL(wallet),
				},
			},
		},
	}
}

// TrySendPaymentNotification DMs the receiver about an incoming payment
// with their new balance and a jump link to the triggering message.
// Delivery failures (DMs disabled, blocked bot) are logged and dropped,
// never failing the payment that triggered them.
func TrySendPaymentNotification(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, api *lnbits.Client, sender, receiver *discordgo.User, amount int64, memo string) {
	receiverIdentity := IdentityOf(receiver)

	wallet, err := api.GetUserWallet(ctx, receiverIdentity)
	if err != nil || wallet == nil {
		log.Warnf("Skipping payment notification, no wallet for %s: %v", receiver.Username, err)
		return
	}
	balance, err := api.GetUserBalance(ctx, receiverIdentity)
	if err != nil {
		log.Warnf("Skipping payment notification, balance read failed for %s: %v", receiver.Username, err)
		return
	}

	description := fmt.Sprintf("You received **%s** from %s", AmountString(amount), sender.Mention())
	if original, err := s.InteractionResponse(i.Interaction); err == nil && original != nil {
		jump := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", i.GuildID, original.ChannelID, original.ID)
		description += fmt.Sprintf("\n\nThe payment happened [here](%s)", jump)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "New Payment",
		Color:       ColorYellow,
		Description: description,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "New Balance", Value: AmountString(balance)},
		},
	}
	if memo != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Memo", Value: fmt.Sprintf("_%s_", memo),
		})
	}

	channel, err := s.UserChannelCreate(receiver.ID)
	if err != nil {
		log.Infof("Could not open DM channel to %s: %v", receiver.Username, err)
		return
	}
	_, err = s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: WalletLinkButton(api, wallet),
	})
	if err != nil {
		log.Infof("Could not DM payment notification to %s: %v", receiver.Username, err)
	}
}
