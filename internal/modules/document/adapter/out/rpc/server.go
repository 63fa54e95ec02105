package rpc

import (
	"context"
	"fmt"
	"image"
	"sync"

	documentout "docshelf/internal/modules/document/port/out"
	apperrors "docshelf/internal/platform/errors"
	"docshelf/internal/platform/id"
)

// Server exposes a local document service over the plugin contract. Open
// handles live until CloseDocument or Shutdown.
type Server struct {
	svc documentout.Service
	ids id.Generator

	mu      sync.Mutex
	handles map[string]documentout.Handle
}

func NewServer(svc documentout.Service, ids id.Generator) *Server {
	return &Server{svc: svc, ids: ids, handles: map[string]documentout.Handle{}}
}

var _ DocumentServiceServer = (*Server)(nil)

func (s *Server) Open(ctx context.Context, in *OpenRequest) (*OpenResponse, error) {
	handle, err := s.svc.Open(ctx, in.Path)
	if err != nil {
		return nil, ToStatus(err)
	}
	handleID := s.ids.New()
	s.mu.Lock()
	s.handles[handleID] = handle
	s.mu.Unlock()
	title, ok := handle.Title()
	return &OpenResponse{HandleID: handleID, Title: title, HasTitle: ok, PageCount: int32(handle.PageCount())}, nil
}

func (s *Server) PageSize(_ context.Context, in *PageRequest) (*PageSizeResponse, error) {
	handle, err := s.lookup(in.HandleID)
	if err != nil {
		return nil, ToStatus(err)
	}
	w, h, err := handle.PageSize(int(in.Page))
	if err != nil {
		return nil, ToStatus(err)
	}
	return &PageSizeResponse{Width: w, Height: h}, nil
}

func (s *Server) RenderPage(ctx context.Context, in *RenderPageRequest) (*RenderPageResponse, error) {
	handle, err := s.lookup(in.HandleID)
	if err != nil {
		return nil, ToStatus(err)
	}
	img, err := handle.RenderPage(ctx, int(in.Page), int(in.Width), int(in.Height))
	if err != nil {
		return nil, ToStatus(err)
	}
	return encodeGray(img), nil
}

func (s *Server) PageText(ctx context.Context, in *PageRequest) (*PageTextResponse, error) {
	handle, err := s.lookup(in.HandleID)
	if err != nil {
		return nil, ToStatus(err)
	}
	text, err := handle.PageText(ctx, int(in.Page))
	if err != nil {
		return nil, ToStatus(err)
	}
	return &PageTextResponse{Text: text}, nil
}

func (s *Server) CloseDocument(_ context.Context, in *CloseDocumentRequest) (*Empty, error) {
	s.mu.Lock()
	handle, ok := s.handles[in.HandleID]
	delete(s.handles, in.HandleID)
	s.mu.Unlock()
	if !ok {
		return &Empty{}, nil
	}
	if err := handle.Close(); err != nil {
		return nil, ToStatus(err)
	}
	return &Empty{}, nil
}

// Shutdown closes every handle still open.
func (s *Server) Shutdown() {
	s.mu.Lock()
	handles := s.handles
	s.handles = map[string]documentout.Handle{}
	s.mu.Unlock()
	for _, handle := range handles {
		_ = handle.Close()
	}
}

func (s *Server) lookup(handleID string) (documentout.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.handles[handleID]
	if !ok {
		return nil, fmt.Errorf("%w: handle %q", apperrors.ErrClosed, handleID)
	}
	return handle, nil
}

func encodeGray(img *image.Gray) *RenderPageResponse {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		pix = append(pix, img.Pix[start:start+w]...)
	}
	return &RenderPageResponse{Width: int32(w), Height: int32(h), Pix: pix}
}

// DecodeGray rebuilds the image carried by a RenderPageResponse.
func DecodeGray(resp *RenderPageResponse) (*image.Gray, error) {
	w, h := int(resp.Width), int(resp.Height)
	if w <= 0 || h <= 0 || len(resp.Pix) != w*h {
		return nil, fmt.Errorf("%w: malformed raster %dx%d with %d bytes", apperrors.ErrNotDocument, w, h, len(resp.Pix))
	}
	return &image.Gray{Pix: resp.Pix, Stride: w, Rect: image.Rect(0, 0, w, h)}, nil
}
