package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	require.NoError(t, Load(""))

	assert.Equal(t, "info", viper.GetString("bot.log_level"))
	assert.Equal(t, "credentials.json", viper.GetString("telegram.credentials_file"))
	assert.Equal(t, "low", viper.GetString("fawkes.mode"))
	assert.Equal(t, 1, viper.GetInt("fawkes.batch_size"))
	assert.InDelta(t, 1e7, viper.GetFloat64("fawkes.sd"), 0)
	assert.Equal(t, 2, viper.GetInt("converter.jpeg_quality"))
	assert.Equal(t, 10*time.Minute, HandlerTimeout())
}

func TestLoad_File(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeFile(t, "cloakbot.toml", `
[fawkes]
mode = "high"
max_concurrent = 3

[telegram]
allowed_chat_ids = [1, 2]
`)

	require.NoError(t, Load(path))

	assert.Equal(t, "high", viper.GetString("fawkes.mode"))
	assert.Equal(t, 3, viper.GetInt("fawkes.max_concurrent"))
	assert.Equal(t, "jpg", viper.GetString("fawkes.format"))

	var ids []int64
	require.NoError(t, viper.UnmarshalKey("telegram.allowed_chat_ids", &ids))
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("CLOAKBOT_FAWKES_MODE", "mid")

	require.NoError(t, Load(""))

	assert.Equal(t, "mid", viper.GetString("fawkes.mode"))
}

func TestLoadCredentials(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "token present", content: `{"api_token": "123:abc"}`, want: "123:abc"},
		{name: "token trimmed", content: `{"api_token": "  123:abc\n"}`, want: "123:abc"},
		{name: "token missing", content: `{"other": "x"}`, wantErr: ErrMissingToken},
		{name: "token empty", content: `{"api_token": ""}`, wantErr: ErrMissingToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "credentials.json", tc.content)

			got, err := LoadCredentials(path)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadCredentials_MissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "credentials.json"))
	require.Error(t, err)
}

func TestHandlerTimeout_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("handler.timeout", "soon")
	assert.Equal(t, 10*time.Minute, HandlerTimeout())

	viper.Set("handler.timeout", "90s")
	assert.Equal(t, 90*time.Second, HandlerTimeout())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(input))
		})
	}
}
