package out

import (
	"context"
	"io"

	"docshelf/internal/modules/extract/domain"
)

// AssetSource exposes the named byte blobs bundled with the application.
// A missing asset is reported as apperrors.ErrAssetNotFound.
type AssetSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type Manifest interface {
	Record(ctx context.Context, record domain.ManifestRecord) error
	List(ctx context.Context) ([]domain.ManifestRecord, error)
}
