package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// DownloadFile returns the byte content of a file on a provided URL.
func DownloadFile(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Send()
		return nil, err
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		err = fmt.Errorf("error reading response %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	return buf, nil
}

const (
	inputDir  = "input"
	imagesDir = "images"
	dirPrefix = "cloakbot-"
)

// WorkDir is the scratch space of a single request. Downloads land in Input, everything handed to the protector
// lives in Images.
type WorkDir struct {
	Root   string
	Input  string
	Images string
}

// NewWorkDir creates a uniquely named working directory below base. An empty base uses the OS temp dir.
func NewWorkDir(base string) (*WorkDir, error) {
	if base == "" {
		base = os.TempDir()
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	root := filepath.Join(base, dirPrefix+id.String())
	w := &WorkDir{
		Root:   root,
		Input:  filepath.Join(root, inputDir),
		Images: filepath.Join(root, imagesDir),
	}

	for _, dir := range []string{w.Input, w.Images} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("error creating working directory %w", err)
		}
	}

	log.Debug().Str("path", root).Msg("created working directory")

	return w, nil
}

// Remove deletes the working directory and everything in it, logging instead of failing.
func (w *WorkDir) Remove() {
	err := os.RemoveAll(w.Root)
	if err != nil {
		log.Warn().Str("path", w.Root).Err(err).Msg("could not clean up working directory")
		return
	}
	log.Debug().Str("path", w.Root).Msg("cleaned up working directory")
}

// WriteFile stores data at path, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("error creating directory %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		err = fmt.Errorf("error writing file %w", err)
		log.Error().Err(err).Send()
		return err
	}

	log.Debug().Int("bytes", len(data)).Str("path", path).Msg("wrote file")

	return nil
}

// SafeName reduces a user supplied file name to a plain base name usable inside a working directory.
func SafeName(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		return fallback
	}

	return name
}
