package out

import (
	"context"
	"image"
)

// Handle is an open, decoded document. Pages are zero-based. Every method
// reports apperrors.ErrClosed once Close has been called.
type Handle interface {
	Title() (string, bool)
	PageCount() int
	PageSize(page int) (float64, float64, error)
	RenderPage(ctx context.Context, page, width, height int) (*image.Gray, error)
	PageText(ctx context.Context, page int) (string, error)
	Close() error
}

// Service opens local files as documents.
type Service interface {
	Open(ctx context.Context, path string) (Handle, error)
}
