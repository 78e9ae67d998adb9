package port

import "context"

type FileFetcher interface {
	// Fetch downloads the transport file with the given id and stores it at dst.
	Fetch(ctx context.Context, fileID string, dst string) error
}
