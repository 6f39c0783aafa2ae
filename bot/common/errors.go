package common

import (
	"errors"
	"fmt"

	"lnbot/lnbits"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// BotError carries a user-facing message next to the internal one
type BotError struct {
	UserMessage string // shown to the Discord user
	LogMessage  string // internal message for logging
	Err         error  // underlying error
}

func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (self-payment,
// insufficient balance, wrong context). These are checked before any
// platform call and carry no underlying error.
func NewUserError(userMessage string) *BotError {
	return &BotError{UserMessage: userMessage, LogMessage: userMessage}
}

// NewSystemError creates an error for unexpected failures
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: "Something went wrong. Please try again later.",
		LogMessage:  logMessage,
		Err:         err,
	}
}

// userMessageFor maps an error to what the invoking user should see.
// Platform API failures surface their response body, everything else is
// kept generic.
func userMessageFor(err error) string {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.UserMessage
	}
	var apiErr *lnbits.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Payment service error: %s", apiErr.Body)
	}
	return "Something went wrong. Please try again later."
}

// HandleError logs err and reports it to the invoking user as a single
// ephemeral message. deferred selects follow-up vs initial response.
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	log.WithFields(log.Fields{
		"user_id": InteractionUser(i).ID,
		"error":   err.Error(),
	}).Error("Command failed")

	if deferred {
		FollowUpWithError(s, i, userMessageFor(err))
	} else {
		RespondWithError(s, i, userMessageFor(err))
	}
}

// RespondWithError sends an ephemeral error message as the interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an ephemeral error follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}
