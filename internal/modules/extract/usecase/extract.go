package usecase

import (
	"context"

	"docshelf/internal/modules/extract/dto"
	extractin "docshelf/internal/modules/extract/port/in"
	"docshelf/internal/modules/extract/service"
)

type Interactor struct {
	svc *service.ExtractService
}

func NewInteractor(svc *service.ExtractService) extractin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Extract(ctx context.Context, input dto.ExtractInput) (dto.ExtractOutput, error) {
	file, err := i.svc.Extract(ctx, input.Name, input.RunID)
	if err != nil {
		return dto.ExtractOutput{}, err
	}
	return dto.ExtractOutput{Entry: file.Entry, Path: file.Path, Identity: file.Identity, Bytes: file.Bytes}, nil
}

func (i *Interactor) ListManifest(ctx context.Context) ([]dto.ManifestEntryOutput, error) {
	records, err := i.svc.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ManifestEntryOutput, 0, len(records))
	for _, record := range records {
		out = append(out, dto.ManifestEntryOutput{
			Entry:       record.Entry,
			Path:        record.Path,
			Identity:    record.Identity,
			Bytes:       record.Bytes,
			ExtractedAt: record.ExtractedAt,
			RunID:       record.RunID,
		})
	}
	return out, nil
}
