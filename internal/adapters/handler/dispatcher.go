package handler

import (
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/domain/command"
	"cloakbot/internal/core/port"
	"cloakbot/internal/core/service"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

const replyTimeout = 30 * time.Second

// Dispatcher routes inbound updates to command responders or the image pipeline.
type Dispatcher struct {
	commandRegistry port.CommandRegistry
	processor       port.Processor
	textSender      port.TextSender
	authorizer      service.Authorizer
	tracker         service.Tracker
	timeout         time.Duration

	mutex    sync.Mutex
	closed   bool
	inFlight sync.WaitGroup
}

func NewDispatcher(commandRegistry port.CommandRegistry, processor port.Processor, textSender port.TextSender,
	authorizer service.Authorizer, tracker service.Tracker, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		commandRegistry: commandRegistry,
		processor:       processor,
		textSender:      textSender,
		authorizer:      authorizer,
		tracker:         tracker,
		timeout:         timeout,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	message := toMessage(update.Message)
	route := domain.Classify(message)

	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("route", string(route)).
		Logger()

	l.Debug().Str("kind", string(message.Kind)).Msg("received message")

	if !d.authorizer.IsAuthorized(ctx, message.ChatID) {
		l.Info().Msg("unauthorized chat")
		return
	}

	switch {
	case route == domain.RouteCommand:
		d.respond(ctx, message)
	case route == domain.RouteUnsupported:
		d.reply(ctx, message, domain.ReplyUnsupported)
	case route.Processes():
		if !d.start() {
			l.Info().Msg("shutting down, dropping request")
			return
		}

		if !d.tracker.CheckLimit(ctx, message.ChatID) {
			l.Info().Msg("daily limit reached")
			d.inFlight.Done()
			return
		}

		d.reply(ctx, message, domain.ReplyProcessing)
		go d.process(context.WithoutCancel(ctx), message, route)
	default:
		d.reply(ctx, message, domain.ReplyInvalid)
	}
}

// Wait stops accepting new work and blocks until every started pipeline run and command has finished.
func (d *Dispatcher) Wait() {
	d.mutex.Lock()
	d.closed = true
	d.mutex.Unlock()

	d.inFlight.Wait()
}

// start reserves a slot for background work, false once Wait was called.
func (d *Dispatcher) start() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return false
	}
	d.inFlight.Add(1)

	return true
}

func (d *Dispatcher) respond(ctx context.Context, message *domain.Message) {
	cmd := command.ParseCommand(message.Text)
	commandHandler, err := d.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		d.reply(ctx, message, domain.ReplyInvalid)
		return
	}

	if !d.start() {
		return
	}

	go func() {
		defer d.inFlight.Done()

		err := commandHandler.Respond(context.WithoutCancel(ctx), d.timeout, message)
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

func (d *Dispatcher) process(ctx context.Context, message *domain.Message, route domain.Route) {
	defer d.inFlight.Done()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	actionCtx, stopAction := context.WithCancel(ctx)
	go d.textSender.SendChatAction(actionCtx, message.ChatID, domain.SendingDocument)

	result := d.processor.Run(ctx, message, route)
	stopAction()

	if text := result.Reason.UserText(); text != "" {
		replyCtx, cancelReply := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
		defer cancelReply()

		d.reply(replyCtx, message, text)
	}
}

func (d *Dispatcher) reply(ctx context.Context, message *domain.Message, text string) {
	if _, err := d.textSender.SendMessageReply(ctx, message, text); err != nil {
		log.Err(err).Int64("chatId", message.ChatID).Msg(domain.ErrSendingReplyFailed.Error())
	}
}

func toMessage(m *models.Message) *domain.Message {
	message := &domain.Message{
		ID:     m.ID,
		ChatID: m.Chat.ID,
		Text:   m.Text,
		Kind:   domain.KindOther,
	}

	if m.From != nil {
		message.SenderID = m.From.ID
		message.Username = getUserNameOrFirstName(m.From)
	}

	switch {
	case m.Document != nil:
		message.Kind = domain.KindDocument
		message.File = &domain.FileRef{
			ID:       m.Document.FileID,
			UniqueID: m.Document.FileUniqueID,
			Name:     m.Document.FileName,
			MIMEType: m.Document.MimeType,
			Size:     m.Document.FileSize,
		}
	case len(m.Photo) > 0:
		photo := findLargestImage(m.Photo)
		message.Kind = domain.KindPhoto
		message.File = &domain.FileRef{
			ID:       photo.FileID,
			UniqueID: photo.FileUniqueID,
			Size:     int64(photo.FileSize),
		}
	case strings.HasPrefix(m.Text, "/"):
		message.Kind = domain.KindCommand
	}

	return message
}

// findLargestImage picks the highest resolution Telegram offers. Sizes arrive in ascending order, so ties go to
// the later entry.
func findLargestImage(photos []models.PhotoSize) models.PhotoSize {
	largest := photos[0]
	for _, photo := range photos[1:] {
		if photo.Width*photo.Height >= largest.Width*largest.Height {
			largest = photo
		}
	}

	return largest
}

func getUserNameOrFirstName(user *models.User) string {
	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
