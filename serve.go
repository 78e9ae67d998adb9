package main

import (
	"cloakbot/internal/adapters/fetcher"
	"cloakbot/internal/adapters/handler"
	"cloakbot/internal/adapters/history"
	"cloakbot/internal/adapters/inspector"
	"cloakbot/internal/adapters/sender"
	"cloakbot/internal/config"
	"cloakbot/internal/core/domain/command"
	"cloakbot/internal/core/service"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	log.Info().Msg("starting cloakbot...")

	token, err := config.LoadCredentials(viper.GetString("telegram.credentials_file"))
	if err != nil {
		log.Error().Err(err).Str("file", viper.GetString("telegram.credentials_file")).
			Msg("bot credentials unavailable")
		return err
	}

	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conv, err := newConverter()
	if err != nil {
		log.Error().Err(err).Msg("failed initializing converter")
		return err
	}

	fawkes, err := newProtector()
	if err != nil {
		log.Error().Err(err).Msg("failed initializing fawkes")
		return err
	}

	store, err := history.NewSQLite(viper.GetString("history.db_path"))
	if err != nil {
		log.Error().Err(err).Msg("failed opening job history")
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed closing job history")
		}
	}()

	// handlers run on the polling goroutine so none can start after Start returns; slow work is spawned by
	// the dispatcher itself
	b, err := bot.New(token, bot.WithNotAsyncHandlers())
	if err != nil {
		log.Error().Err(err).Msg("failed initializing telegram bot")
		return err
	}

	s := sender.NewTelegram(b)

	pipeline := service.NewPipeline(
		fetcher.NewTelegram(b),
		conv,
		inspector.NewExif(),
		fawkes,
		service.NewRelay(s),
		store,
		service.PipelineConfig{
			WorkBase:      viper.GetString("workdir.base"),
			MaxConcurrent: viper.GetInt64("fawkes.max_concurrent"),
		},
	)

	authorizer, err := service.NewAuthorizer(s)
	if err != nil {
		log.Error().Err(err).Msg("failed initializing authorizer")
		return err
	}

	tracker := service.NewQuotaTracker(ctx, s)

	commandRegistry := &command.Registry{}
	commandRegistry.Register(command.NewReply(s, "/start", command.StartText))
	commandRegistry.Register(command.NewReply(s, "/new_pic", command.NewPicText))
	commandRegistry.Register(command.NewStats(store, tracker, s, "/stats"))
	commandRegistry.Register(command.NewStatus(s, pipeline, "/status"))

	dispatcher := handler.NewDispatcher(commandRegistry, pipeline, s, authorizer, tracker,
		config.HandlerTimeout())

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, dispatcher.Handle)

	log.Info().Strs("commands", commandRegistry.ListCommands()).Msg("bot listening")
	b.Start(ctx)

	log.Info().Msg("shutting down, waiting for running jobs")
	dispatcher.Wait()

	return nil
}
