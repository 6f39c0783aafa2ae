package coinflip

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"lnbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.RequireGuild(s, i) {
		return
	}

	var price int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "amount" {
			price = opt.IntValue()
		}
	}

	initiator := common.InteractionUser(i)

	balance, err := f.api.GetUserBalance(ctx, common.IdentityOf(initiator))
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	if balance < price {
		common.HandleError(s, i, common.NewUserError(fmt.Sprintf(
			"You need at least %s to start this coinflip.", common.AmountString(price))), false)
		return
	}

	session := NewSession(initiator, price)
	embed := sessionEmbed(session)
	if err := common.RespondWithEmbed(s, i, embed, flipButtons(), false); err != nil {
		log.Errorf("Error responding to coinflip command: %v", err)
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		log.Errorf("Error fetching coinflip message: %v", err)
		return
	}
	f.rememberSession(msg.ID, session)
}

func (f *Feature) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	session, ok := f.sessionFor(i.Message.ID)
	if !ok {
		common.RespondWithError(s, i, "This coinflip is no longer open.")
		return
	}

	user := common.InteractionUser(i)

	// The prospective stake is what the user would owe with one more
	// entry. Checked before joining so a broke user cannot dilute the
	// round.
	stake := session.Stake(user.ID) + session.Price()
	balance, err := f.api.GetUserBalance(ctx, common.IdentityOf(user))
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	if balance < stake {
		common.HandleError(s, i, common.NewUserError(fmt.Sprintf(
			"You need at least %s to hold that many entries.", common.AmountString(stake))), false)
		return
	}

	if !session.Join(user) {
		common.RespondWithError(s, i, "The coin has already been flipped.")
		return
	}

	if err := common.UpdateMessage(s, i, sessionEmbed(session), flipButtons()); err != nil {
		log.Errorf("Error updating coinflip message: %v", err)
	}
}

func (f *Feature) handleFlip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	session, ok := f.sessionFor(i.Message.ID)
	if !ok {
		common.RespondWithError(s, i, "This coinflip is no longer open.")
		return
	}

	caller := common.InteractionUser(i)
	winner, losers, err := session.Flip(caller.ID, rand.Intn)
	if err != nil {
		common.RespondWithError(s, i, flipErrorMessage(err))
		return
	}

	// Settling the stakes can outlast the interaction window
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Errorf("Error deferring coinflip flip: %v", err)
	}

	// Collect each loser's stake, skipping anyone whose payment fails.
	// The winner gets whatever actually settled.
	var won int64
	var firstPayer *discordgo.User
	for _, loser := range losers {
		_, err := f.api.SendPayment(ctx, common.IdentityOf(loser.User), common.IdentityOf(winner),
			loser.Stake, "Coinflip loss")
		if err != nil {
			log.Warnf("Coinflip stake from %s failed, skipping: %v", loser.User.Username, err)
			continue
		}
		if firstPayer == nil {
			firstPayer = loser.User
		}
		won += loser.Stake
	}

	f.forgetSession(i.Message.ID)

	embeds := []*discordgo.MessageEmbed{resultEmbed(winner, won)}
	components := common.DisableComponents(flipButtons())
	_, err = s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    i.ChannelID,
		ID:         i.Message.ID,
		Embeds:     &embeds,
		Components: &components,
	})
	if err != nil {
		log.Errorf("Error updating coinflip result: %v", err)
	}

	if won > 0 && firstPayer != nil {
		common.TrySendPaymentNotification(ctx, s, i, f.api, firstPayer, winner, won, "Coinflip winnings")
	}
}

func flipErrorMessage(err error) string {
	switch {
	case errors.Is(err, errNotInitiator):
		return "Only whoever started the coinflip can flip it."
	case errors.Is(err, errAlreadyFlipped):
		return "The coin has already been flipped."
	case errors.Is(err, errNotEnoughPlayers):
		return "At least one other player has to join before flipping."
	default:
		return "Something went wrong. Please try again later."
	}
}

func sessionEmbed(session *Session) *discordgo.MessageEmbed {
	entrants := session.Entrants()
	lines := make([]string, len(entrants))
	for idx, u := range entrants {
		lines[idx] = fmt.Sprintf("%s (%s at stake)", u.Mention(), common.AmountString(session.Stake(u.ID)))
	}
	return &discordgo.MessageEmbed{
		Title: "🪙 Coinflip 🪙",
		Color: common.ColorYellow,
		Description: fmt.Sprintf("%s started a coinflip at **%s** per entry. Winner takes all!",
			session.Initiator().Mention(), common.AmountString(session.Price())),
		Fields: []*discordgo.MessageEmbedField{
			{Name: fmt.Sprintf("Players (%d entries)", session.EntryCount()), Value: strings.Join(lines, "\n")},
		},
	}
}

func resultEmbed(winner *discordgo.User, won int64) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🪙 Coinflip 🪙",
		Color: common.ColorYellow,
		Description: fmt.Sprintf("%s won **%s**! 🎉",
			winner.Mention(), common.AmountString(won)),
	}
}

func flipButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Join",
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🎟️"},
					CustomID: "coinflip_join",
				},
				discordgo.Button{
					Label:    "Flip",
					Style:    discordgo.DangerButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🪙"},
					CustomID: "coinflip_flip",
				},
			},
		},
	}
}
