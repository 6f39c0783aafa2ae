package tip

import (
	"context"
	"fmt"

	"lnbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleTip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.RequireGuild(s, i) {
		return
	}

	var receiver *discordgo.User
	var amount int64
	var memo string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "member":
			receiver = opt.UserValue(s)
		case "amount":
			amount = opt.IntValue()
		case "memo":
			memo = opt.StringValue()
		}
	}

	sender := common.InteractionUser(i)
	if err := validateTip(sender, receiver); err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring tip response: %v", err)
		return
	}

	_, err := f.api.SendPayment(ctx, common.IdentityOf(sender), common.IdentityOf(receiver), amount, memo)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	embed := tipEmbed(sender, receiver, amount, memo)
	msg, err := common.FollowUpWithEmbed(s, i, embed, repeatButton(), false)
	if err != nil {
		log.Errorf("Error responding to tip command: %v", err)
	}
	if msg != nil {
		f.rememberRepeat(msg.ID, repeatParams{receiver: receiver, amount: amount, memo: memo})
	}

	common.TrySendPaymentNotification(ctx, s, i, f.api, sender, receiver, amount, memo)
}

// handleRepeat replays a tip with the clicking user as the sender
func (f *Feature) handleRepeat(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	params, ok := f.repeatFor(i.Message.ID)
	if !ok {
		common.RespondWithError(s, i, "This tip can no longer be repeated.")
		return
	}

	sender := common.InteractionUser(i)
	if err := validateTip(sender, params.receiver); err != nil {
		common.HandleError(s, i, err, false)
		return
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring tip repeat: %v", err)
		return
	}

	_, err := f.api.SendPayment(ctx, common.IdentityOf(sender), common.IdentityOf(params.receiver), params.amount, params.memo)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	embed := tipEmbed(sender, params.receiver, params.amount, params.memo)
	msg, err := common.FollowUpWithEmbed(s, i, embed, repeatButton(), false)
	if err != nil {
		log.Errorf("Error responding to tip repeat: %v", err)
	}
	if msg != nil {
		f.rememberRepeat(msg.ID, params)
	}

	common.TrySendPaymentNotification(ctx, s, i, f.api, sender, params.receiver, params.amount, params.memo)
}

// validateTip rejects tips that can never settle before any platform call
func validateTip(sender, receiver *discordgo.User) error {
	if receiver == nil {
		return common.NewUserError("You need to pick someone to tip.")
	}
	if receiver.Bot {
		return common.NewUserError("Bots don't have wallets to tip into.")
	}
	if receiver.ID == sender.ID {
		return common.NewUserError("You can't tip yourself.")
	}
	return nil
}

func tipEmbed(sender, receiver *discordgo.User, amount int64, memo string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🏅 Tip 🏅",
		Color:       common.ColorYellow,
		Description: fmt.Sprintf("%s tipped %s **%s**", sender.Mention(), receiver.Mention(), common.AmountString(amount)),
	}
	if memo != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Memo", Value: fmt.Sprintf("_%s_", memo),
		})
	}
	return embed
}

func repeatButton() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Repeat",
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔁"},
					CustomID: "tip_repeat",
				},
			},
		},
	}
}
