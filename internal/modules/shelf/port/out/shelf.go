package out

import (
	"context"

	"docshelf/internal/modules/shelf/domain"
)

// Extractor copies one catalog entry to local storage.
type Extractor interface {
	Extract(ctx context.Context, entry, runID string) (domain.LocalFile, error)
}

// Decoder opens an extracted file. The caller owns the returned document.
type Decoder interface {
	Decode(ctx context.Context, path string) (domain.Document, error)
}
