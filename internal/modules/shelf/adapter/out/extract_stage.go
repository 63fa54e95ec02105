package out

import (
	"context"

	extractdto "docshelf/internal/modules/extract/dto"
	extractin "docshelf/internal/modules/extract/port/in"
	"docshelf/internal/modules/shelf/domain"
	shelfout "docshelf/internal/modules/shelf/port/out"
)

type ExtractStage struct {
	usecase extractin.Usecase
}

func NewExtractStage(usecase extractin.Usecase) shelfout.Extractor {
	return &ExtractStage{usecase: usecase}
}

func (a *ExtractStage) Extract(ctx context.Context, entry, runID string) (domain.LocalFile, error) {
	out, err := a.usecase.Extract(ctx, extractdto.ExtractInput{Name: entry, RunID: runID})
	if err != nil {
		return domain.LocalFile{}, err
	}
	return domain.LocalFile{Entry: out.Entry, Path: out.Path, Identity: domain.Identity(out.Identity)}, nil
}
