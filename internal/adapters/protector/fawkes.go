package protector

import (
	"cloakbot/internal/core/domain"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// waitDelay bounds how long a killed fawkes may keep its output pipes open.
const waitDelay = 5 * time.Second

type Config struct {
	Binary           string
	Mode             domain.Mode
	FeatureExtractor string
	GPU              string
	BatchSize        int
	// SD is the strength (penalty) parameter handed to fawkes as --sd.
	SD     float64
	Format string
}

// Fawkes runs the fawkes command line tool against a directory of images.
type Fawkes struct {
	binary string
	cfg    Config
}

func NewFawkes(cfg Config) (*Fawkes, error) {
	binary, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("fawkes binary not available: %w", err)
	}

	if _, err := domain.ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}

	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}

	cfg.Format = strings.TrimPrefix(strings.ToLower(cfg.Format), ".")
	switch cfg.Format {
	case "":
		cfg.Format = "jpg"
	case "jpg", "jpeg", "png":
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOutput, cfg.Format)
	}

	log.Debug().Str("path", binary).Str("mode", string(cfg.Mode)).Msg("fawkes binary found")

	return &Fawkes{binary: binary, cfg: cfg}, nil
}

func (f *Fawkes) Protect(ctx context.Context, path string) ([]domain.Artifact, error) {
	dir, err := directoryOf(path)
	if err != nil {
		return nil, err
	}

	sources, err := pendingImages(dir)
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return nil, domain.ErrNoInput
	}

	l := log.With().Str("dir", dir).Int("images", len(sources)).Str("mode", string(f.cfg.Mode)).Logger()
	l.Info().Msg("running fawkes")

	cmd := exec.CommandContext(ctx, f.binary, f.args(dir)...)
	cmd.WaitDelay = waitDelay
	out, err := cmd.CombinedOutput()
	if err != nil {
		l.Error().Bytes("fawkesOutput", out).Err(err).Msg("fawkes command failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fawkes interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("fawkes failed: %w", err)
	}

	l.Debug().Bytes("fawkesOutput", out).Msg("fawkes command finished")

	artifacts := make([]domain.Artifact, 0, len(sources))
	for _, src := range sources {
		cloaked := CloakedPath(src, f.cfg.Format)
		if _, err := os.Stat(cloaked); err != nil {
			l.Warn().Str("source", src).Msg("no protected output, likely no face detected")
			continue
		}

		artifacts = append(artifacts, domain.Artifact{Source: src, Cloaked: cloaked})
	}

	return artifacts, nil
}

func (f *Fawkes) args(dir string) []string {
	return []string{
		"--directory", dir,
		"--mode", string(f.cfg.Mode),
		"--feature-extractor", f.cfg.FeatureExtractor,
		"--gpu", f.cfg.GPU,
		"--batch-size", strconv.Itoa(f.cfg.BatchSize),
		"--sd", strconv.FormatFloat(f.cfg.SD, 'g', -1, 64),
		"--format", f.cfg.Format,
	}
}

// CloakedPath is where fawkes writes the protected version of src.
func CloakedPath(src, format string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + domain.CloakedMarker + "." + format
}

// directoryOf treats a file path as its containing directory.
func directoryOf(path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	if stat.IsDir() {
		return path, nil
	}

	return filepath.Dir(path), nil
}

// pendingImages lists the regular files in dir that are not protected outputs themselves.
func pendingImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() || strings.Contains(entry.Name(), domain.CloakedMarker) {
			continue
		}
		sources = append(sources, filepath.Join(dir, entry.Name()))
	}

	return sources, nil
}
