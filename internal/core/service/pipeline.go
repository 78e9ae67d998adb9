package service

import (
	"cloakbot/internal/adapters/file"
	"cloakbot/internal/core/domain"
	"cloakbot/internal/core/port"
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	convertedName = "converted_image.jpg"
	historyWrite  = 5 * time.Second
)

type PipelineConfig struct {
	// WorkBase is the directory per-request working directories are created in, the OS temp dir when empty.
	WorkBase string
	// MaxConcurrent caps protection runs across all requests.
	MaxConcurrent int64
}

// Pipeline turns one inbound image into protected documents sent back to the sender.
type Pipeline struct {
	fetcher   port.FileFetcher
	converter port.ImageConverter
	inspector port.MetadataInspector
	protector port.Protector
	relay     *Relay
	history   port.History
	slots     *semaphore.Weighted
	workBase  string
	active    atomic.Int64
}

// NewPipeline wires the stages. inspector and history are optional.
func NewPipeline(fetcher port.FileFetcher, converter port.ImageConverter, inspector port.MetadataInspector,
	protector port.Protector, relay *Relay, history port.History, cfg PipelineConfig) *Pipeline {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}

	return &Pipeline{
		fetcher:   fetcher,
		converter: converter,
		inspector: inspector,
		protector: protector,
		relay:     relay,
		history:   history,
		slots:     semaphore.NewWeighted(cfg.MaxConcurrent),
		workBase:  cfg.WorkBase,
	}
}

// Active returns the number of requests currently being processed.
func (p *Pipeline) Active() int64 {
	return p.active.Load()
}

func (p *Pipeline) Run(ctx context.Context, message *domain.Message, route domain.Route) domain.Result {
	p.active.Add(1)
	defer p.active.Add(-1)

	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("route", string(route)).
		Logger()

	start := time.Now()
	result := p.run(ctx, l, message, route)

	if result.OK() {
		l.Info().Int("delivered", result.Delivered).Dur("took", time.Since(start)).Msg("request processed")
	} else {
		l.Error().Err(result.Err).Str("reason", string(result.Reason)).Msg("request failed")
	}

	p.record(ctx, l, domain.JobRecord{
		ChatID:    message.ChatID,
		Route:     route,
		Reason:    result.Reason,
		Artifacts: result.Delivered,
		Duration:  time.Since(start),
		CreatedAt: start,
	})

	return result
}

func (p *Pipeline) run(ctx context.Context, l zerolog.Logger, message *domain.Message,
	route domain.Route) domain.Result {
	if !route.Processes() || message.File == nil {
		return domain.Failed(domain.ReasonConversion, domain.ErrUnsupportedFormat)
	}

	w, err := file.NewWorkDir(p.workBase)
	if err != nil {
		return domain.Failed(domain.ReasonDownload, err)
	}
	defer w.Remove()

	image, original := p.paths(w, message, route)

	l.Debug().Str("fileId", message.File.ID).Str("dst", original).Msg("fetching input")
	if err := p.fetcher.Fetch(ctx, message.File.ID, original); err != nil {
		return failure(ctx, domain.ReasonDownload, err)
	}

	info := p.inspect(l, original)

	if route.NeedsConversion() {
		if err := p.converter.ToJPEG(ctx, route, original, image); err != nil {
			return failure(ctx, domain.ReasonConversion, err)
		}
	}

	if err := p.converter.Fit(ctx, image); err != nil {
		return failure(ctx, domain.ReasonConversion, err)
	}

	artifacts, err := p.protect(ctx, image)
	if err != nil {
		return failure(ctx, domain.ReasonProtection, err)
	}

	if len(artifacts) == 0 {
		return domain.Failed(domain.ReasonNoFace, nil)
	}

	for i := range artifacts {
		artifacts[i].Info = info
	}

	delivered, err := p.relay.Deliver(ctx, message, artifacts)
	result := domain.Result{Artifacts: artifacts, Delivered: delivered}
	switch {
	case err != nil:
		result.Reason = domain.ReasonDelivery
		result.Err = err
	case delivered == 0:
		result.Reason = domain.ReasonProtection
		result.Err = domain.ErrNothingDelivered
	}

	return result
}

// paths returns where the image handed to the protector lives and where the download goes. They are the same
// file unless the input needs conversion.
func (p *Pipeline) paths(w *file.WorkDir, message *domain.Message, route domain.Route) (string, string) {
	if !route.NeedsConversion() {
		name := message.File.UniqueID
		if name == "" {
			name = message.File.ID
		}
		image := filepath.Join(w.Images, file.SafeName(name, "photo")+".jpg")
		return image, image
	}

	fallback := "image.heic"
	if route == domain.RouteDNG {
		fallback = "image.dng"
	}

	return filepath.Join(w.Images, convertedName), filepath.Join(w.Input, file.SafeName(message.File.Name, fallback))
}

func (p *Pipeline) inspect(l zerolog.Logger, path string) domain.ImageInfo {
	if p.inspector == nil {
		return domain.ImageInfo{}
	}

	info, err := p.inspector.Inspect(path)
	if err != nil {
		l.Debug().Err(err).Msg("no image metadata")
	}

	return info
}

func (p *Pipeline) protect(ctx context.Context, image string) ([]domain.Artifact, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.slots.Release(1)

	return p.protector.Protect(ctx, image)
}

func (p *Pipeline) record(ctx context.Context, l zerolog.Logger, record domain.JobRecord) {
	if p.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWrite)
	defer cancel()

	if err := p.history.Record(ctx, record); err != nil {
		l.Warn().Err(err).Msg("failed to record job")
	}
}

// failure reports an expired request deadline as a timeout regardless of the stage it interrupted.
func failure(ctx context.Context, reason domain.FailureReason, err error) domain.Result {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.Failed(domain.ReasonTimeout, err)
	}

	return domain.Failed(reason, err)
}
