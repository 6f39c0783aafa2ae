package payme

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"lnbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

func (f *Feature) handlePayme(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if !common.RequireGuild(s, i) {
		return
	}

	var amount int64
	memo := "Payment request"
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "amount":
			amount = opt.IntValue()
		case "description":
			memo = opt.StringValue()
		}
	}

	receiver := common.InteractionUser(i)

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring payme response: %v", err)
		return
	}

	wallet, err := f.api.GetOrCreateWallet(ctx, common.IdentityOf(receiver))
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	invoice, err := f.api.CreateInvoice(ctx, wallet, amount, memo)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	qrPath, err := f.renderQR(invoice.PaymentHash, invoice.PaymentRequest)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "rendering invoice QR"), true)
		return
	}
	defer os.Remove(qrPath)

	qrFile, err := os.Open(qrPath)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "reading invoice QR"), true)
		return
	}
	defer qrFile.Close()

	embed := &discordgo.MessageEmbed{
		Title:       "⚡ Payment Request ⚡",
		Color:       common.ColorYellow,
		Description: fmt.Sprintf("%s requests **%s**\n\n_%s_", receiver.Mention(), common.AmountString(amount), memo),
		Image:       &discordgo.MessageEmbedImage{URL: "attachment://qr.png"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Invoice", Value: fmt.Sprintf("```%s```", invoice.PaymentRequest)},
		},
	}
	msg, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: payButton(),
		Files: []*discordgo.File{
			{Name: "qr.png", ContentType: "image/png", Reader: qrFile},
		},
	})
	if err != nil {
		log.Errorf("Error responding to payme command: %v", err)
		return
	}
	f.rememberRequest(msg.ID, request{receiver: receiver, bolt11: invoice.PaymentRequest, amount: amount, memo: memo})
}

// handlePay settles the invoice from the clicking user's wallet. The
// request is taken out of the registry first so a double click cannot
// pay the same invoice twice.
func (f *Feature) handlePay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	payer := common.InteractionUser(i)

	r, ok := f.takeRequest(i.Message.ID)
	if !ok {
		common.RespondWithError(s, i, "This payment request is no longer open.")
		return
	}
	if payer.ID == r.receiver.ID {
		f.restoreRequest(i.Message.ID, r)
		common.RespondWithError(s, i, "You can't pay your own request.")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring pay response: %v", err)
		f.restoreRequest(i.Message.ID, r)
		return
	}

	wallet, err := f.api.GetUserWallet(ctx, common.IdentityOf(payer))
	if err == nil && wallet == nil {
		err = common.NewUserError("You don't have a wallet yet. Use /create first.")
	}
	if err == nil {
		err = f.api.PayInvoice(ctx, wallet, r.bolt11)
	}
	if err != nil {
		f.restoreRequest(i.Message.ID, r)
		common.HandleError(s, i, err, true)
		return
	}

	f.markPaid(s, i, payer, r)

	_, err = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("You paid **%s** to %s.", common.AmountString(r.amount), r.receiver.Mention()),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error confirming invoice payment: %v", err)
	}

	common.TrySendPaymentNotification(ctx, s, i, f.api, payer, r.receiver, r.amount, r.memo)
}

// markPaid rewrites the request message, dropping the QR and button
func (f *Feature) markPaid(s *discordgo.Session, i *discordgo.InteractionCreate, payer *discordgo.User, r request) {
	embed := &discordgo.MessageEmbed{
		Title:       "⚡ Payment Request ⚡",
		Color:       common.ColorYellow,
		Description: fmt.Sprintf("**%s** paid by %s", common.AmountString(r.amount), payer.Mention()),
	}
	embeds := []*discordgo.MessageEmbed{embed}
	components := []discordgo.MessageComponent{}
	attachments := []*discordgo.MessageAttachment{}

	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:     i.ChannelID,
		ID:          i.Message.ID,
		Embeds:      &embeds,
		Components:  &components,
		Attachments: &attachments,
	})
	if err != nil {
		log.Warnf("Could not mark payment request as paid: %v", err)
	}
}

// renderQR writes the invoice QR as a PNG under the data directory and
// returns its path. The caller removes the file once it has been sent.
func (f *Feature) renderQR(paymentHash, bolt11 string) (string, error) {
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(f.dataDir, fmt.Sprintf("qr-%s.png", paymentHash))

	qrc, err := qrcode.New(bolt11)
	if err != nil {
		return "", err
	}
	w, err := standard.New(path)
	if err != nil {
		return "", err
	}
	if err := qrc.Save(w); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func payButton() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Pay Now",
					Style:    discordgo.SuccessButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "⚡"},
					CustomID: "payme_pay",
				},
			},
		},
	}
}
