// Package local backs the pipeline with the filesystem instead of a chat, for one-off runs from the command line.
package local

import (
	"cloakbot/internal/adapters/file"
	"cloakbot/internal/core/domain"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

var mimeTypes = map[string]string{
	".heic": domain.MIMEHEIC,
	".heif": domain.MIMEHEIC,
	".dng":  domain.MIMEDNG,
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Message describes a file on disk the way an inbound chat message would. JPEG and PNG files are treated as
// photos, everything else as a document.
func Message(path string) (*domain.Message, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(abs)
	mimeType := mimeTypes[strings.ToLower(filepath.Ext(name))]

	message := &domain.Message{
		Kind: domain.KindDocument,
		File: &domain.FileRef{
			ID:       abs,
			UniqueID: strings.TrimSuffix(name, filepath.Ext(name)),
			Name:     name,
			MIMEType: mimeType,
			Size:     stat.Size(),
		},
	}

	if mimeType == "image/jpeg" || mimeType == "image/png" {
		message.Kind = domain.KindPhoto
	}

	return message, nil
}

// Fetcher copies the file named by the file ID.
type Fetcher struct{}

func NewFetcher() *Fetcher {
	return &Fetcher{}
}

func (f *Fetcher) Fetch(ctx context.Context, fileID string, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(fileID)
	if err != nil {
		return fmt.Errorf("error reading input %w", err)
	}

	return file.WriteFile(dst, data)
}

// DirSender writes delivered documents into a directory.
type DirSender struct {
	dir string
}

func NewDirSender(dir string) (*DirSender, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating output directory %w", err)
	}

	return &DirSender{dir: dir}, nil
}

func (d *DirSender) SendDocumentReply(ctx context.Context, _ *domain.Message, filename string, data []byte,
	caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(d.dir, file.SafeName(filename, "protected.jpg"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing output %w", err)
	}

	l := log.Info().Str("path", path)
	if caption != "" {
		l = l.Str("note", caption)
	}
	l.Msg("wrote protected image")

	return nil
}
