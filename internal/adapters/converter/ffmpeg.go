package converter

import (
	"bytes"
	"cloakbot/internal/core/domain"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	intermediateSuffix = "_intermediate.ppm"
	waitDelay          = 5 * time.Second
)

type Config struct {
	FFmpegBinary string
	DcrawBinary  string
	// JPEGQuality is passed to ffmpeg as -q:v, 2 (best) to 31.
	JPEGQuality  int
	MaxDimension int
}

type FFmpegConverter struct {
	ffmpeg       string
	dcraw        string
	quality      int
	maxDimension int
}

// NewFFmpegConverter resolves the configured binaries. ffmpeg is required, dcraw only for raw input, so a missing
// dcraw is logged and surfaces as an error on the first DNG conversion.
func NewFFmpegConverter(cfg Config) (*FFmpegConverter, error) {
	ffmpeg, err := exec.LookPath(cfg.FFmpegBinary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg binary not available: %w", err)
	}
	log.Debug().Str("path", ffmpeg).Msg("binary found")

	dcraw, err := exec.LookPath(cfg.DcrawBinary)
	if err != nil {
		log.Warn().Str("binary", cfg.DcrawBinary).Msg("dcraw binary not found, raw images will fail to convert")
		dcraw = ""
	}

	quality := cfg.JPEGQuality
	if quality < 2 || quality > 31 {
		quality = 2
	}

	return &FFmpegConverter{ffmpeg: ffmpeg, dcraw: dcraw, quality: quality, maxDimension: cfg.MaxDimension}, nil
}

func (c *FFmpegConverter) ToJPEG(ctx context.Context, route domain.Route, src, dst string) error {
	l := log.With().Str("route", string(route)).Str("src", src).Str("dst", dst).Logger()
	l.Debug().Msg("converting image")

	switch route {
	case domain.RouteHEIC:
		return c.encode(ctx, src, dst)
	case domain.RouteDNG:
		intermediate, err := c.decodeRaw(ctx, src)
		if err != nil {
			return err
		}
		defer os.Remove(intermediate)

		return c.encode(ctx, intermediate, dst)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, route)
	}
}

// decodeRaw writes the dcraw decoding of src next to it and returns the intermediate path.
func (c *FFmpegConverter) decodeRaw(ctx context.Context, src string) (string, error) {
	if c.dcraw == "" {
		return "", errors.New("dcraw binary not available")
	}

	intermediate := strings.TrimSuffix(src, filepath.Ext(src)) + intermediateSuffix
	out, err := os.Create(intermediate)
	if err != nil {
		return "", fmt.Errorf("error creating intermediate file %w", err)
	}
	defer out.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.dcraw, "-c", src)
	cmd.Stdout = out
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		log.Error().Str("dcrawStderr", stderr.String()).Msg("dcraw command failed")
		return "", fmt.Errorf("dcraw failed: %w", err)
	}

	log.Debug().Str("path", intermediate).Msg("dcraw command finished")

	return intermediate, nil
}

func (c *FFmpegConverter) encode(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, c.ffmpeg,
		"-y",
		"-loglevel", "error",
		"-i", src,
		"-q:v", strconv.Itoa(c.quality),
		dst,
	)
	cmd.WaitDelay = waitDelay

	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Error().Bytes("ffmpegOutput", out).Msg("ffmpeg command failed")
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	stat, err := os.Stat(dst)
	if err != nil || stat.Size() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingOutput, dst)
	}

	log.Debug().Str("path", dst).Int64("bytes", stat.Size()).Msg("ffmpeg command finished")

	return nil
}
