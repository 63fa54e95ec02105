package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"docshelf/internal/modules/document/domain"
	documentout "docshelf/internal/modules/document/port/out"
	apperrors "docshelf/internal/platform/errors"
)

type DocumentService struct {
	backend documentout.Service
	logger  hclog.Logger
}

func NewDocumentService(backend documentout.Service, logger hclog.Logger) *DocumentService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DocumentService{backend: backend, logger: logger.Named("document")}
}

type openResult struct {
	handle documentout.Handle
	err    error
}

// Open decodes path. Decoding cannot always be interrupted, so when ctx ends
// first Open returns immediately and the late handle is closed on arrival.
// Every failure is an *apperrors.DecodeError.
func (s *DocumentService) Open(ctx context.Context, path string) (documentout.Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &apperrors.DecodeError{Path: path, Err: fmt.Errorf("%w: path is required", apperrors.ErrInvalidInput)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &apperrors.DecodeError{Path: path, Err: err}
	}
	done := make(chan openResult, 1)
	go func() {
		handle, err := s.backend.Open(ctx, path)
		done <- openResult{handle: handle, err: err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, asDecodeError(path, res.err)
		}
		if res.handle == nil {
			return nil, &apperrors.DecodeError{Path: path, Err: apperrors.ErrNotDocument}
		}
		s.logger.Debug("document opened", "path", path, "pages", res.handle.PageCount())
		return res.handle, nil
	case <-ctx.Done():
		go func() {
			if res := <-done; res.handle != nil {
				_ = res.handle.Close()
				s.logger.Debug("closed document opened after cancellation", "path", path)
			}
		}()
		return nil, &apperrors.DecodeError{Path: path, Err: ctx.Err()}
	}
}

// Inspect opens path, reads its metadata and the size of page, and closes
// it again.
func (s *DocumentService) Inspect(ctx context.Context, path string, page int) (domain.Info, error) {
	handle, err := s.Open(ctx, path)
	if err != nil {
		return domain.Info{}, err
	}
	defer handle.Close()
	return info(path, handle, page)
}

// Render opens path and produces one page as pixels and text.
func (s *DocumentService) Render(ctx context.Context, path string, page, width, height int) (domain.Info, *RenderedPage, error) {
	if width <= 0 || height <= 0 {
		return domain.Info{}, nil, fmt.Errorf("%w: render size %dx%d", apperrors.ErrInvalidInput, width, height)
	}
	handle, err := s.Open(ctx, path)
	if err != nil {
		return domain.Info{}, nil, err
	}
	defer handle.Close()
	meta, err := info(path, handle, page)
	if err != nil {
		return domain.Info{}, nil, err
	}
	img, err := handle.RenderPage(ctx, page, width, height)
	if err != nil {
		return meta, nil, fmt.Errorf("render page %d: %w", page, err)
	}
	text, err := handle.PageText(ctx, page)
	if err != nil {
		return meta, nil, fmt.Errorf("page %d text: %w", page, err)
	}
	return meta, &RenderedPage{Page: page, Image: img, Text: text}, nil
}

func info(path string, handle documentout.Handle, page int) (domain.Info, error) {
	title, ok := handle.Title()
	meta := domain.Info{Path: path, Title: title, HasTitle: ok, PageCount: handle.PageCount(), Page: page, Size: domain.Letter}
	if meta.PageCount == 0 && page == 0 {
		return meta, nil
	}
	if err := domain.CheckPage(page, meta.PageCount); err != nil {
		return domain.Info{}, err
	}
	w, h, err := handle.PageSize(page)
	if err != nil {
		return domain.Info{}, fmt.Errorf("page %d size: %w", page, err)
	}
	meta.Size = domain.PageSize{Width: w, Height: h}
	return meta, nil
}

func asDecodeError(path string, err error) error {
	var decodeErr *apperrors.DecodeError
	if errors.As(err, &decodeErr) {
		return err
	}
	return &apperrors.DecodeError{Path: path, Err: err}
}
