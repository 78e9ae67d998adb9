package main

import (
	"cloakbot/internal/adapters/converter"
	"cloakbot/internal/adapters/protector"
	"cloakbot/internal/config"
	"cloakbot/internal/core/domain"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:           "cloakbot",
		Short:         "Telegram bot that cloaks faces in images with fawkes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := config.Load(configPath); err != nil {
				log.Error().Err(err).Msg("failed loading config")
				return err
			}

			config.SetupLogging(os.Stderr)

			return nil
		},
		RunE: serve.RunE,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ./config.toml)")

	cmd.AddCommand(serve)
	cmd.AddCommand(newProtectCmd())

	return cmd
}

func newConverter() (*converter.FFmpegConverter, error) {
	return converter.NewFFmpegConverter(converter.Config{
		FFmpegBinary: viper.GetString("converter.ffmpeg"),
		DcrawBinary:  viper.GetString("converter.dcraw"),
		JPEGQuality:  viper.GetInt("converter.jpeg_quality"),
		MaxDimension: viper.GetInt("converter.max_dimension"),
	})
}

func newProtector() (*protector.Fawkes, error) {
	mode, err := domain.ParseMode(viper.GetString("fawkes.mode"))
	if err != nil {
		return nil, err
	}

	return protector.NewFawkes(protector.Config{
		Binary:           viper.GetString("fawkes.binary"),
		Mode:             mode,
		FeatureExtractor: viper.GetString("fawkes.feature_extractor"),
		GPU:              viper.GetString("fawkes.gpu"),
		BatchSize:        viper.GetInt("fawkes.batch_size"),
		SD:               viper.GetFloat64("fawkes.sd"),
		Format:           viper.GetString("fawkes.format"),
	})
}
