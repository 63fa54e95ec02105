package out

import (
	"context"

	documentdto "docshelf/internal/modules/document/dto"
	documentin "docshelf/internal/modules/document/port/in"
	"docshelf/internal/modules/shelf/domain"
	shelfout "docshelf/internal/modules/shelf/port/out"
)

type DecodeStage struct {
	usecase documentin.Usecase
}

func NewDecodeStage(usecase documentin.Usecase) shelfout.Decoder {
	return &DecodeStage{usecase: usecase}
}

func (a *DecodeStage) Decode(ctx context.Context, path string) (domain.Document, error) {
	out, err := a.usecase.Open(ctx, documentdto.OpenInput{Path: path})
	if err != nil {
		return nil, err
	}
	return out.Handle, nil
}
