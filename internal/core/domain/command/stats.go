package command

import (
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/port"
	"cloakbot/internal/core/service"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const statsTemplate = `images today: %d
jobs total: %d
succeeded: %d
failed: %d
files delivered: %d
`

// Stats reports the calling chat's job history and today's usage.
type Stats struct {
	history    port.History
	tracker    service.Tracker
	textSender port.TextSender
	command    string
}

func NewStats(history port.History, tracker service.Tracker, sender port.TextSender, command string) *Stats {
	return &Stats{
		history:    history,
		tracker:    tracker,
		textSender: sender,
		command:    command,
	}
}

func (s *Stats) GetCommand() string {
	return s.command
}

func (s *Stats) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.command).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stats, err := s.history.Stats(ctx, message.ChatID)
	if err != nil {
		l.Error().Err(err).Msg("failed to read job history")
		return s.textSender.NotifyAndReturnError(ctx, err, message)
	}

	_, err = s.textSender.SendMessageReply(ctx, message, fmt.Sprintf(statsTemplate,
		s.tracker.Used(message.ChatID), stats.Total, stats.Succeeded, stats.Failed, stats.Artifacts))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
