package in

import (
	"context"

	"docshelf/internal/modules/shelf/dto"
	shelfin "docshelf/internal/modules/shelf/port/in"
)

type CLIHandler struct {
	usecase shelfin.Usecase
}

func NewCLIHandler(usecase shelfin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Load(ctx context.Context) (dto.LoadReportOutput, error) {
	return h.usecase.LoadAll(ctx)
}

func (h CLIHandler) Catalog(ctx context.Context) []string {
	return h.usecase.Catalog(ctx)
}

func (h CLIHandler) Close() error {
	return h.usecase.Close()
}
