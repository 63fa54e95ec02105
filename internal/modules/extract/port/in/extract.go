package in

import (
	"context"

	"docshelf/internal/modules/extract/dto"
)

type Usecase interface {
	Extract(ctx context.Context, input dto.ExtractInput) (dto.ExtractOutput, error)
	ListManifest(ctx context.Context) ([]dto.ManifestEntryOutput, error)
}
