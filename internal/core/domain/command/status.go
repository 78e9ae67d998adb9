package command

import (
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/port"
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"time"

	"github.com/rs/zerolog/log"
)

// ActivityCounter reports how many pipeline runs are in progress.
type ActivityCounter interface {
	Active() int64
}

type Status struct {
	textSender port.TextSender
	activity   ActivityCounter
	started    time.Time
	command    string
}

func NewStatus(sender port.TextSender, activity ActivityCounter, command string) *Status {
	return &Status{textSender: sender, activity: activity, started: time.Now(), command: command}
}

func (s *Status) GetCommand() string {
	return s.command
}

const kb = 1024
const statusTemplate = `jobs running: %d
uptime: %s
allocated mem: %d KB
threads running: %d
heap: %d KB
stack: %d KB
compiled with %s for %s-%s
`
const metricCount = 3

func (s *Status) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.GetCommand()).
		Logger()

	data := make([]metrics.Sample, metricCount)
	data[0] = metrics.Sample{Name: "/memory/classes/heap/objects:bytes"}
	data[1] = metrics.Sample{Name: "/memory/classes/heap/stacks:bytes"}
	data[2] = metrics.Sample{Name: "/memory/classes/total:bytes"}

	metrics.Read(data)

	l.Info().Int64("active", s.activity.Active()).Msg("handling request")

	goos, goarch := runtime.GOOS, runtime.GOARCH
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}

	_, err := s.textSender.SendMessageReply(ctx, message,
		fmt.Sprintf(
			statusTemplate,
			s.activity.Active(),
			time.Since(s.started).Truncate(time.Second),
			data[2].Value.Uint64()/kb,
			runtime.NumGoroutine(),
			data[0].Value.Uint64()/kb,
			data[1].Value.Uint64()/kb,
			runtime.Version(), goos, goarch,
		))

	return err
}
