package port

import (
	"cloakbot/internal/core/domain"
	"context"
)

type History interface {
	Record(ctx context.Context, record domain.JobRecord) error
	Stats(ctx context.Context, chatID int64) (domain.JobStats, error)
}
