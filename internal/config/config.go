package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "CLOAKBOT"
	configName = "config"
)

var ErrMissingToken = errors.New("credentials file has no api_token")

// SetDefaults registers the default for every key the bot reads.
func SetDefaults() {
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("bot.pretty_log", false)

	viper.SetDefault("telegram.credentials_file", "credentials.json")
	viper.SetDefault("telegram.allowed_chat_ids", []int64{})
	viper.SetDefault("telegram.admin_username", "")
	viper.SetDefault("telegram.daily_image_limit", 0)

	viper.SetDefault("handler.timeout", "10m")
	viper.SetDefault("workdir.base", "")

	viper.SetDefault("converter.ffmpeg", "ffmpeg")
	viper.SetDefault("converter.dcraw", "dcraw")
	viper.SetDefault("converter.jpeg_quality", 2)
	viper.SetDefault("converter.max_dimension", 0)

	viper.SetDefault("fawkes.binary", "fawkes")
	viper.SetDefault("fawkes.mode", "low")
	viper.SetDefault("fawkes.feature_extractor", "arcface_extractor_0")
	viper.SetDefault("fawkes.gpu", 0)
	viper.SetDefault("fawkes.batch_size", 1)
	viper.SetDefault("fawkes.sd", 1e7)
	viper.SetDefault("fawkes.format", "jpg")
	viper.SetDefault("fawkes.max_concurrent", 1)

	viper.SetDefault("history.db_path", "cloakbot.db")
}

// Load applies defaults and environment overrides, then reads the config file. An explicit path must exist, while
// the implicit ./config.toml is optional.
func Load(path string) error {
	SetDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(configName)
		viper.SetConfigType("toml")
	}

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			log.Info().Msg("no config file found, using defaults")
			return nil
		}

		return fmt.Errorf("could not read config file: %w", err)
	}

	log.Info().Str("file", viper.ConfigFileUsed()).Msg("loaded config file")

	return nil
}

// LoadCredentials reads the bot token from a JSON file of the form {"api_token": "..."}.
func LoadCredentials(path string) (string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	err := v.ReadInConfig()
	if err != nil {
		return "", fmt.Errorf("could not read credentials: %w", err)
	}

	token := strings.TrimSpace(v.GetString("api_token"))
	if token == "" {
		return "", ErrMissingToken
	}

	return token, nil
}

// HandlerTimeout returns the per-request deadline, falling back to the default on an unparsable value.
func HandlerTimeout() time.Duration {
	const fallback = 10 * time.Minute

	timeout, err := time.ParseDuration(viper.GetString("handler.timeout"))
	if err != nil || timeout <= 0 {
		log.Warn().Str("value", viper.GetString("handler.timeout")).Msg("invalid handler timeout, using default")
		return fallback
	}

	return timeout
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetupLogging applies bot.log_level and bot.pretty_log to the global logger.
func SetupLogging(out io.Writer) {
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(viper.GetString("bot.log_level")))

	if viper.GetBool("bot.pretty_log") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
		return
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
