package donate

import (
	"context"
	"fmt"

	"lnbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) handleDonate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.RequireGuild(s, i) {
		return
	}

	var amount int64
	description := "Donation"
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "amount":
			amount = opt.IntValue()
		case "description":
			description = opt.StringValue()
		}
	}

	donor := common.InteractionUser(i)

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring donate response: %v", err)
		return
	}

	// Donations come out of an existing wallet, not a freshly provisioned
	// empty one
	wallet, err := f.api.GetUserWallet(ctx, common.IdentityOf(donor))
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}
	if wallet == nil {
		common.HandleError(s, i, common.NewUserError("You don't have a wallet yet. Use /create first."), true)
		return
	}

	link, err := f.api.CreateWithdrawLink(ctx, wallet, description, amount)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎁 Donation 🎁",
		Color:       common.ColorYellow,
		Description: fmt.Sprintf("%s is donating **%s**\n\n_%s_", donor.Mention(), common.AmountString(amount), description),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "First come, first served. Claim it below or withdraw via LNURL.",
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "LNURL", Value: fmt.Sprintf("```%s```", link.LNURL)},
		},
	}
	msg, err := common.FollowUpWithEmbed(s, i, embed, claimButton(), false)
	if err != nil {
		log.Errorf("Error responding to donate command: %v", err)
		return
	}
	f.rememberDonation(msg.ID, donation{donor: donor, lnurl: link.LNURL, amount: amount})
}

// handleClaim redeems the withdraw link into the clicking user's wallet.
// The claim is taken out of the registry up front so two clicks cannot
// both attempt the single-use link.
func (f *Feature) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	d, ok := f.takeDonation(i.Message.ID)
	if !ok {
		common.RespondWithError(s, i, "This donation has already been claimed.")
		return
	}

	claimer := common.InteractionUser(i)

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring claim response: %v", err)
		f.restoreDonation(i.Message.ID, d)
		return
	}

	err := f.redeem(ctx, claimer, d)
	if err != nil {
		f.restoreDonation(i.Message.ID, d)
		common.HandleError(s, i, err, true)
		return
	}

	f.markClaimed(s, i, claimer)

	_, err = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("You claimed **%s** from %s!", common.AmountString(d.amount), d.donor.Mention()),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error confirming donation claim: %v", err)
	}
}

func (f *Feature) redeem(ctx context.Context, claimer *discordgo.User, d donation) error {
	wallet, err := f.api.GetOrCreateWallet(ctx, common.IdentityOf(claimer))
	if err != nil {
		return err
	}
	scan, err := f.api.ScanLNURL(ctx, wallet, d.lnurl)
	if err != nil {
		return err
	}
	return f.api.RedeemLNURL(ctx, wallet, scan)
}

// markClaimed rewrites the donation message so the button shows who won
func (f *Feature) markClaimed(s *discordgo.Session, i *discordgo.InteractionCreate, claimer *discordgo.User) {
	claimed := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    fmt.Sprintf("Claimed by %s", claimer.Username),
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
					CustomID: "donate_claimed",
					Disabled: true,
				},
			},
		},
	}

	var embeds []*discordgo.MessageEmbed
	if i.Message != nil {
		embeds = i.Message.Embeds
	}
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    i.ChannelID,
		ID:         i.Message.ID,
		Embeds:     &embeds,
		Components: &claimed,
	})
	if err != nil {
		log.Warnf("Could not mark donation as claimed: %v", err)
	}
}

func claimButton() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Claim",
					Style:    discordgo.SuccessButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🎁"},
					CustomID: "donate_claim",
				},
			},
		},
	}
}
