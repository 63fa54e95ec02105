package in

import (
	"context"

	"docshelf/internal/modules/shelf/dto"
)

type Usecase interface {
	LoadAll(ctx context.Context) (dto.LoadReportOutput, error)
	OpenDocument(ctx context.Context, input dto.OpenInput) error
	CloseDocument(ctx context.Context) error
	State(ctx context.Context) dto.Snapshot
	// Subscribe delivers the current snapshot first, then each newer one.
	// The channel closes when ctx ends, cancel is called or the shelf closes.
	Subscribe(ctx context.Context) (<-chan dto.Snapshot, func())
	LastReport(ctx context.Context) dto.LoadReportOutput
	Catalog(ctx context.Context) []string
	Close() error
}
