package service

import (
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/port"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Tracker interface {
	CheckLimit(ctx context.Context, chatID int64) bool
	Used(chatID int64) int
}

// QuotaTracker counts images per chat and day. Cloaking is expensive, so every chat gets a daily budget; a limit
// of zero disables the quota.
type QuotaTracker struct {
	chats      map[int64]int
	dailyLimit int
	mutex      sync.Mutex
	sender     port.TextSender
}

func NewQuotaTracker(ctx context.Context, sender port.TextSender) *QuotaTracker {
	qt := &QuotaTracker{
		chats:      make(map[int64]int),
		sender:     sender,
		dailyLimit: viper.GetInt("telegram.daily_image_limit"),
	}

	go qt.ResetDailyLimit(ctx)

	return qt
}

const overLimit = "You have reached your daily limit of %d images. Limit will reset in %s."

// CheckLimit books one image for the chat and reports whether it is still within its daily quota. Images are
// counted even without a quota so usage can be reported. Refused requests are told so in the chat and not counted.
func (t *QuotaTracker) CheckLimit(ctx context.Context, chatID int64) bool {
	t.mutex.Lock()
	allowed := t.dailyLimit <= 0 || t.chats[chatID] < t.dailyLimit
	if allowed {
		t.chats[chatID]++
	}
	t.mutex.Unlock()

	if allowed {
		return true
	}

	_, err := t.sender.SendMessageReply(ctx,
		&domain.Message{ChatID: chatID},
		fmt.Sprintf(overLimit, t.dailyLimit, time.Until(getNextResetTime()).Truncate(time.Second)))
	if err != nil {
		log.Warn().Err(err).Msg("failed to send daily limit exceeded warning")
	}

	return false
}

func (t *QuotaTracker) Used(chatID int64) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.chats[chatID]
}

func (t *QuotaTracker) reset() {
	t.mutex.Lock()
	t.chats = make(map[int64]int)
	t.mutex.Unlock()
}

func (t *QuotaTracker) ResetDailyLimit(ctx context.Context) {
	reset := getNextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily limit")
			t.reset()
			time.Sleep(time.Second)
			reset = getNextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping daily limit reset")
			return
		}
	}
}

func getNextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
