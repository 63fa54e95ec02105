package in

import (
	"context"

	"docshelf/internal/modules/document/dto"
)

type Usecase interface {
	// Open decodes path and hands ownership of the open document to the
	// caller, who must Close it.
	Open(ctx context.Context, input dto.OpenInput) (dto.DocumentOutput, error)
	Inspect(ctx context.Context, input dto.InspectInput) (dto.InfoOutput, error)
	Render(ctx context.Context, input dto.RenderInput) (dto.RenderOutput, error)
}
