package in

import (
	"context"

	"docshelf/internal/modules/document/dto"
	documentin "docshelf/internal/modules/document/port/in"
)

type CLIHandler struct {
	usecase documentin.Usecase
}

func NewCLIHandler(usecase documentin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Inspect(ctx context.Context, path string, page int) (dto.InfoOutput, error) {
	return h.usecase.Inspect(ctx, dto.InspectInput{Path: path, Page: page})
}

func (h CLIHandler) Render(ctx context.Context, path string, page, width, height int) (dto.RenderOutput, error) {
	return h.usecase.Render(ctx, dto.RenderInput{Path: path, Page: page, Width: width, Height: height})
}
