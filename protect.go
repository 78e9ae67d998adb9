package main

import (
	"cloakbot/internal/adapters/inspector"
	"cloakbot/internal/adapters/local"
	"cloakbot/internal/config"
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/service"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newProtectCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "protect <file|dir>",
		Short: "Cloak an image, or every image in a directory, without starting the bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return protect(cmd.Context(), args[0], out)
		},
	}

	cmd.Flags().StringVar(&out, "out", ".", "directory the protected image is written to")

	return cmd
}

func protect(ctx context.Context, path, out string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	if stat.IsDir() {
		return protectDir(ctx, path, out)
	}

	message, err := local.Message(path)
	if err != nil {
		return err
	}

	route := domain.Classify(message)
	if !route.Processes() {
		return fmt.Errorf("%s: %w", path, domain.ErrUnsupportedFormat)
	}

	conv, err := newConverter()
	if err != nil {
		return err
	}

	fawkes, err := newProtector()
	if err != nil {
		return err
	}

	dirSender, err := local.NewDirSender(out)
	if err != nil {
		return err
	}

	pipeline := service.NewPipeline(local.NewFetcher(), conv, inspector.NewExif(), fawkes,
		service.NewRelay(dirSender), nil, service.PipelineConfig{
			WorkBase:      viper.GetString("workdir.base"),
			MaxConcurrent: 1,
		})

	ctx, cancel := context.WithTimeout(ctx, config.HandlerTimeout())
	defer cancel()

	result := pipeline.Run(ctx, message, route)
	if !result.OK() {
		if text := result.Reason.UserText(); text != "" {
			log.Error().Str("reason", string(result.Reason)).Msg(text)
		}
		if result.Err == nil {
			return errors.New(string(result.Reason))
		}

		return result.Err
	}

	log.Info().Int("files", result.Delivered).Str("out", out).Msg("done")

	return nil
}

// protectDir cloaks the JPEG and PNG images of dir in place and copies the results to out. Outputs stay in dir
// under their delivered names.
func protectDir(ctx context.Context, dir, out string) error {
	fawkes, err := newProtector()
	if err != nil {
		return err
	}

	dirSender, err := local.NewDirSender(out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, config.HandlerTimeout())
	defer cancel()

	artifacts, err := fawkes.Protect(ctx, dir)
	if err != nil {
		return err
	}

	delivered, err := service.NewRelay(dirSender).DeliverDir(ctx, &domain.Message{}, dir)
	if err != nil {
		return err
	}
	if delivered == 0 {
		return domain.ErrNothingDelivered
	}

	log.Info().Int("protected", len(artifacts)).Int("files", delivered).Str("out", out).Msg("done")

	return nil
}
