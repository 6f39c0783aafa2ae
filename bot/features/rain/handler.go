package rain

import (
	"context"
	"fmt"
	"strings"

	"lnbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleRain(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.RequireGuild(s, i) {
		return
	}

	var amount, count int64
	var memo, rolesRaw string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "amount":
			amount = opt.IntValue()
		case "users":
			count = opt.IntValue()
		case "description":
			memo = opt.StringValue()
		case "roles":
			rolesRaw = opt.StringValue()
		}
	}

	sender := common.InteractionUser(i)

	// Paying a member list takes a while
	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring rain response: %v", err)
		return
	}

	balance, err := f.api.GetUserBalance(ctx, common.IdentityOf(sender))
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}
	if balance < amount*count {
		common.HandleError(s, i, common.NewUserError(fmt.Sprintf(
			"You need at least %s to rain on %d members.", common.AmountString(amount*count), count)), true)
		return
	}

	members, err := allGuildMembers(s, i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "listing guild members"), true)
		return
	}

	pool := eligibleRecipients(members, sender.ID, parseRoleMentions(rolesRaw))
	if len(pool) == 0 {
		common.HandleError(s, i, common.NewUserError("Nobody here qualifies for the rain."), true)
		return
	}

	paid := payRound(pool, count, func(recipient *discordgo.User) bool {
		_, err := f.api.SendPayment(ctx, common.IdentityOf(sender), common.IdentityOf(recipient), amount, memo)
		if err != nil {
			log.Warnf("Rain payment to %s failed, skipping: %v", recipient.Username, err)
			return false
		}
		return true
	})

	if len(paid) == 0 {
		common.HandleError(s, i, common.NewUserError("No payments went through. Nobody got rained on."), true)
		return
	}

	mentions := make([]string, len(paid))
	for idx, u := range paid {
		mentions[idx] = u.Mention()
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🌧️ Rain 🌧️",
		Color:       common.ColorYellow,
		Description: fmt.Sprintf("%s rained **%s** each on %s", sender.Mention(), common.AmountString(amount), strings.Join(mentions, ", ")),
	}
	if memo != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Memo", Value: fmt.Sprintf("_%s_", memo),
		})
	}
	if _, err := common.FollowUpWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding to rain command: %v", err)
	}

	for _, recipient := range paid {
		common.TrySendPaymentNotification(ctx, s, i, f.api, sender, recipient, amount, memo)
	}
}

// allGuildMembers pages through the full member list, 1000 at a time
func allGuildMembers(s *discordgo.Session, guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := s.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < 1000 {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}
