package service

import (
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/port"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Authorizer interface {
	IsAuthorized(ctx context.Context, chatID int64) bool
}

// ChatAuthorizer restricts the bot to an allowlist of chats. An empty allowlist admits every chat.
type ChatAuthorizer struct {
	allowlist map[int64]struct{}
	admin     string
	sender    port.TextSender
}

func NewAuthorizer(sender port.TextSender) (*ChatAuthorizer, error) {
	var list []int64

	err := viper.UnmarshalKey("telegram.allowed_chat_ids", &list)
	if err != nil {
		return nil, errors.New("failed to load allowed chat IDs")
	}

	allowlist := make(map[int64]struct{}, len(list))
	for _, id := range list {
		allowlist[id] = struct{}{}
	}

	if len(allowlist) == 0 {
		log.Info().Msg("no chat allowlist configured, bot is open to everyone")
	}

	return &ChatAuthorizer{
		allowlist: allowlist,
		admin:     viper.GetString("telegram.admin_username"),
		sender:    sender,
	}, nil
}

const forbidden = "You are not authorized to use this bot. Please contact @%s with this ID to get access: %d"

func (a *ChatAuthorizer) IsAuthorized(ctx context.Context, chatID int64) bool {
	if len(a.allowlist) == 0 {
		return true
	}

	if _, ok := a.allowlist[chatID]; ok {
		return true
	}

	_, err := a.sender.SendMessageReply(ctx,
		&domain.Message{ChatID: chatID},
		fmt.Sprintf(forbidden, a.admin, chatID))
	if err != nil {
		log.Err(err).Msg("failed to send unauthorized warning")
	}

	return false
}
