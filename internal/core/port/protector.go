package port

import (
	"cloakbot/internal/core/domain"
	"context"
)

type Protector interface {
	// Protect cloaks every image in path (or in the directory containing path) that is not already a protected
	// output and returns one artifact per image that produced an output.
	Protect(ctx context.Context, path string) ([]domain.Artifact, error)
}

type Processor interface {
	// Run processes one inbound image on the given route and reports the outcome.
	Run(ctx context.Context, message *domain.Message, route domain.Route) domain.Result
}
