package port

import (
	"cloakbot/internal/core/domain"
	"context"
)

type ImageConverter interface {
	// ToJPEG converts the image at src, which was received on the given route, into a JPEG at dst.
	ToJPEG(ctx context.Context, route domain.Route, src, dst string) error
	// Fit downscales the image at path in place when it exceeds the configured maximum dimension.
	Fit(ctx context.Context, path string) error
}

type MetadataInspector interface {
	Inspect(path string) (domain.ImageInfo, error)
}
