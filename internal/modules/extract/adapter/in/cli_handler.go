package in

import (
	"context"

	"docshelf/internal/modules/extract/dto"
	extractin "docshelf/internal/modules/extract/port/in"
)

type CLIHandler struct {
	usecase extractin.Usecase
}

func NewCLIHandler(usecase extractin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Extract(ctx context.Context, name string) (dto.ExtractOutput, error) {
	return h.usecase.Extract(ctx, dto.ExtractInput{Name: name, RunID: "cli"})
}

func (h CLIHandler) Manifest(ctx context.Context) ([]dto.ManifestEntryOutput, error) {
	return h.usecase.ListManifest(ctx)
}
