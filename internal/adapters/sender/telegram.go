package sender

import (
	"bytes"
	"cloakbot/internal/core/domain"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

//go:generate mockery --name TelegramBot

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

const ChatActionRepeatSeconds = 5

type TelegramSender struct {
	bot            TelegramBot
	actionInterval time.Duration
}

func NewTelegram(bot TelegramBot) *TelegramSender {
	return &TelegramSender{bot: bot, actionInterval: ChatActionRepeatSeconds * time.Second}
}

func replyTo(message *domain.Message) *models.ReplyParameters {
	if message.ID == 0 {
		return nil
	}

	return &models.ReplyParameters{
		MessageID:                message.ID,
		ChatID:                   message.ChatID,
		AllowSendingWithoutReply: true,
	}
}

func (s *TelegramSender) SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error) {
	sent, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          message.ChatID,
		Text:            text,
		ReplyParameters: replyTo(message),
	})
	if err != nil {
		log.Error().Err(err).Int64("chatId", message.ChatID).Msg("failed to send message reply")
		return 0, err
	}

	return sent.ID, nil
}

func (s *TelegramSender) NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error {
	_, sendErr := s.SendMessageReply(ctx, message, err.Error())
	if sendErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, sendErr)
	}

	return err
}

func (s *TelegramSender) SendDocumentReply(ctx context.Context, message *domain.Message, filename string,
	data []byte, caption string) error {
	params := &bot.SendDocumentParams{
		ChatID: message.ChatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
		Caption:         caption,
		ReplyParameters: replyTo(message),
	}

	_, err := s.bot.SendDocument(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("failed to send document response")
		return err
	}

	log.Debug().Str("filename", filename).Int("bytes", len(data)).Msg("document sent")

	return nil
}

func (s *TelegramSender) SendChatAction(ctx context.Context, chatID int64, action domain.Action) {
	var chatAction models.ChatAction
	switch action {
	case domain.SendingDocument:
		chatAction = models.ChatActionUploadDocument
	case domain.Typing:
		chatAction = models.ChatActionTyping
	default:
		chatAction = models.ChatActionTyping
	}

	log.Debug().Int64("chatID", chatID).Msg("starting action routine")
	for {
		_, err := s.bot.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: chatAction,
		})
		if err != nil {
			if ctx.Err() == nil {
				log.Err(err).Msg("error sending chat action")
			}
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Int64("chatID", chatID).Msg("done, stopping action routine")
			return
		case <-time.After(s.actionInterval):
		}
	}
}
