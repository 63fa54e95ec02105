package in

import (
	"context"

	"docshelf/internal/modules/shelf/dto"
	shelfin "docshelf/internal/modules/shelf/port/in"
)

// TUIHandler is the narrow surface the terminal UI drives.
type TUIHandler struct {
	usecase shelfin.Usecase
}

func NewTUIHandler(usecase shelfin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Load(ctx context.Context) (dto.LoadReportOutput, error) {
	return h.usecase.LoadAll(ctx)
}

func (h TUIHandler) Open(ctx context.Context, identity string) error {
	return h.usecase.OpenDocument(ctx, dto.OpenInput{Identity: identity})
}

func (h TUIHandler) CloseDocument(ctx context.Context) error {
	return h.usecase.CloseDocument(ctx)
}

func (h TUIHandler) Snapshot(ctx context.Context) dto.Snapshot {
	return h.usecase.State(ctx)
}

func (h TUIHandler) Subscribe(ctx context.Context) (<-chan dto.Snapshot, func()) {
	return h.usecase.Subscribe(ctx)
}

func (h TUIHandler) LastReport(ctx context.Context) dto.LoadReportOutput {
	return h.usecase.LastReport(ctx)
}
