package usecase

import (
	"context"

	"docshelf/internal/modules/document/domain"
	"docshelf/internal/modules/document/dto"
	documentin "docshelf/internal/modules/document/port/in"
	"docshelf/internal/modules/document/service"
)

type Interactor struct {
	svc *service.DocumentService
}

func NewInteractor(svc *service.DocumentService) documentin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Open(ctx context.Context, input dto.OpenInput) (dto.DocumentOutput, error) {
	handle, err := i.svc.Open(ctx, input.Path)
	if err != nil {
		return dto.DocumentOutput{}, err
	}
	title, ok := handle.Title()
	return dto.DocumentOutput{
		Path:      input.Path,
		Title:     title,
		HasTitle:  ok,
		PageCount: handle.PageCount(),
		Handle:    handle,
	}, nil
}

func (i *Interactor) Inspect(ctx context.Context, input dto.InspectInput) (dto.InfoOutput, error) {
	meta, err := i.svc.Inspect(ctx, input.Path, input.Page)
	if err != nil {
		return dto.InfoOutput{}, err
	}
	return toInfo(meta), nil
}

func (i *Interactor) Render(ctx context.Context, input dto.RenderInput) (dto.RenderOutput, error) {
	meta, page, err := i.svc.Render(ctx, input.Path, input.Page, input.Width, input.Height)
	if err != nil {
		return dto.RenderOutput{}, err
	}
	return dto.RenderOutput{Info: toInfo(meta), Page: page.Page, Image: page.Image, Text: page.Text}, nil
}

func toInfo(meta domain.Info) dto.InfoOutput {
	return dto.InfoOutput{
		Path:       meta.Path,
		Title:      meta.Title,
		HasTitle:   meta.HasTitle,
		PageCount:  meta.PageCount,
		Page:       meta.Page,
		PageWidth:  meta.Size.Width,
		PageHeight: meta.Size.Height,
	}
}
