package fetcher

import (
	"cloakbot/internal/adapters/file"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type FileGetter interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// Telegram downloads files users sent to the bot.
type Telegram struct {
	bot FileGetter
}

func NewTelegram(bot FileGetter) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) Fetch(ctx context.Context, fileID string, dst string) error {
	f, err := t.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return fmt.Errorf("error getting file from telegram api: %w", err)
	}

	log.Debug().Str("fileId", fileID).Int64("size", f.FileSize).Msg("resolved file")

	data, err := file.DownloadFile(ctx, t.bot.FileDownloadLink(f))
	if err != nil {
		return err
	}

	return file.WriteFile(dst, data)
}
