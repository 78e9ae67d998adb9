package command

import (
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/port"
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	StartText  = "Hello!\nPlease send me images to be copied!"
	NewPicText = "Send me a new image to process!"
)

// Reply answers a command with a fixed text.
type Reply struct {
	textSender port.TextSender
	command    string
	text       string
}

func NewReply(sender port.TextSender, command, text string) *Reply {
	return &Reply{textSender: sender, command: command, text: text}
}

func (r *Reply) GetCommand() string {
	return r.command
}

func (r *Reply) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	log.Debug().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", r.command).
		Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := r.textSender.SendMessageReply(ctx, message, r.text)

	return err
}
