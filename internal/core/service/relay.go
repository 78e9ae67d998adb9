package service

import (
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/port"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog/log"
)

var cloakedName = regexp.MustCompile(`^(.+)` + regexp.QuoteMeta(domain.CloakedMarker) + `\.((?i:jpe?g|png))$`)

// Relay hands protected images back to the chat they came from.
type Relay struct {
	sender port.DocumentSender
}

func NewRelay(sender port.DocumentSender) *Relay {
	return &Relay{sender: sender}
}

// DeliveredName returns the name a protected file is sent under, and false when name does not follow the
// protected output convention.
func DeliveredName(name string) (string, bool) {
	m := cloakedName.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}

	return m[1] + domain.DeliveredMarker + "." + m[2], true
}

// Scan lists the protected outputs in dir. Entry order is whatever the filesystem reports.
func Scan(dir string) ([]domain.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var artifacts []domain.Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := DeliveredName(entry.Name()); !ok {
			continue
		}
		artifacts = append(artifacts, domain.Artifact{Cloaked: filepath.Join(dir, entry.Name())})
	}

	return artifacts, nil
}

// Rename moves a protected output to its delivered name in place.
func Rename(artifact *domain.Artifact) error {
	name, ok := DeliveredName(filepath.Base(artifact.Cloaked))
	if !ok {
		return fmt.Errorf("%s: %w", artifact.Cloaked, domain.ErrNotProtectedOutput)
	}

	delivered := filepath.Join(filepath.Dir(artifact.Cloaked), name)
	if err := os.Rename(artifact.Cloaked, delivered); err != nil {
		return err
	}

	artifact.Delivered = delivered

	return nil
}

// Deliver renames and sends each artifact. It stops at the first failed transmission; artifacts renamed before
// are neither resent nor renamed back. Artifacts not following the naming convention are skipped.
func (r *Relay) Deliver(ctx context.Context, message *domain.Message, artifacts []domain.Artifact) (int, error) {
	sent := 0
	for i := range artifacts {
		a := &artifacts[i]

		if err := Rename(a); err != nil {
			log.Debug().Err(err).Str("path", a.Cloaked).Msg("skipping artifact")
			continue
		}

		data, err := os.ReadFile(a.Delivered)
		if err != nil {
			return sent, fmt.Errorf("error reading protected image %w", err)
		}

		var caption string
		if a.Info.HasGPS {
			caption = domain.CaptionNoGPS
		}

		if err := r.sender.SendDocumentReply(ctx, message, filepath.Base(a.Delivered), data, caption); err != nil {
			return sent, fmt.Errorf("error sending protected image: %w", err)
		}
		sent++
	}

	return sent, nil
}

// DeliverDir scans dir for protected outputs and delivers all of them.
func (r *Relay) DeliverDir(ctx context.Context, message *domain.Message, dir string) (int, error) {
	artifacts, err := Scan(dir)
	if err != nil {
		return 0, err
	}

	return r.Deliver(ctx, message, artifacts)
}
