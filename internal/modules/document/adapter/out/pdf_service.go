package out

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"strings"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"rsc.io/pdf"

	"docshelf/internal/modules/document/domain"
	documentout "docshelf/internal/modules/document/port/out"
	apperrors "docshelf/internal/platform/errors"
)

// Validation modes accepted by NewPDFService.
const (
	ValidateOff     = "off"
	ValidateRelaxed = "relaxed"
	ValidateStrict  = "strict"
)

func init() {
	// Keep pdfcpu from creating a config directory in the user's home.
	model.ConfigPath = "disable"
}

// PDFService opens local PDF files. Structure is checked with pdfcpu before
// rsc.io/pdf reads metadata, text and geometry.
type PDFService struct {
	validate string
	logger   hclog.Logger
}

func NewPDFService(validate string, logger hclog.Logger) *PDFService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if validate == "" {
		validate = ValidateRelaxed
	}
	return &PDFService{validate: validate, logger: logger.Named("pdf")}
}

var _ documentout.Service = (*PDFService)(nil)

func (s *PDFService) Open(ctx context.Context, path string) (documentout.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	handle, err := newPDFHandle(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if s.validate == ValidateStrict {
		count, err := api.PageCountFile(path)
		if err == nil && count != handle.pages {
			_ = handle.Close()
			return nil, fmt.Errorf("%w: page count mismatch (%d vs %d)", apperrors.ErrNotDocument, count, handle.pages)
		}
	}
	return handle, nil
}

func (s *PDFService) check(path string) error {
	var mode int
	switch s.validate {
	case ValidateOff:
		return nil
	case ValidateStrict:
		mode = model.ValidationStrict
	default:
		mode = model.ValidationRelaxed
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = mode
	if err := guard(func() error { return api.ValidateFile(path, conf) }); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		s.logger.Debug("validation failed", "path", path, "mode", s.validate, "error", err)
		return fmt.Errorf("%w: %v", apperrors.ErrNotDocument, err)
	}
	return nil
}

type pdfHandle struct {
	mu     sync.Mutex
	file   *os.File
	reader *pdf.Reader
	title  string
	titled bool
	pages  int
	sizes  map[int]domain.PageSize
	closed bool
}

func newPDFHandle(f *os.File) (*pdfHandle, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	h := &pdfHandle{file: f, sizes: map[int]domain.PageSize{}}
	err = guard(func() error {
		reader, err := pdf.NewReader(f, info.Size())
		if err != nil {
			return err
		}
		h.reader = reader
		h.pages = reader.NumPage()
		if raw := reader.Trailer().Key("Info").Key("Title"); raw.Kind() == pdf.String {
			h.title, h.titled = domain.CleanTitle(raw.Text())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNotDocument, err)
	}
	if h.pages <= 0 {
		return nil, fmt.Errorf("%w: document has no pages", apperrors.ErrNotDocument)
	}
	return h, nil
}

func (h *pdfHandle) Title() (string, bool) {
	return h.title, h.titled
}

func (h *pdfHandle) PageCount() int {
	return h.pages
}

func (h *pdfHandle) PageSize(page int) (float64, float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	size, err := h.pageSize(page)
	if err != nil {
		return 0, 0, err
	}
	return size.Width, size.Height, nil
}

func (h *pdfHandle) pageSize(page int) (domain.PageSize, error) {
	if h.closed {
		return domain.PageSize{}, apperrors.ErrClosed
	}
	if err := domain.CheckPage(page, h.pages); err != nil {
		return domain.PageSize{}, err
	}
	if size, ok := h.sizes[page]; ok {
		return size, nil
	}
	size := domain.Letter
	err := guard(func() error {
		size = mediaBox(h.reader.Page(page + 1))
		return nil
	})
	if err != nil {
		return domain.PageSize{}, fmt.Errorf("%w: %v", apperrors.ErrNotDocument, err)
	}
	h.sizes[page] = size
	return size, nil
}

func (h *pdfHandle) RenderPage(ctx context.Context, page, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: render size %dx%d", apperrors.ErrInvalidInput, width, height)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	size, err := h.pageSize(page)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := h.content(page)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rasterize(content, size, width, height), nil
}

func (h *pdfHandle) PageText(ctx context.Context, page int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.pageSize(page); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := h.content(page)
	if err != nil {
		return "", err
	}
	return strings.Join(domain.Lines(glyphs(content)), "\n"), nil
}

func (h *pdfHandle) content(page int) (pdf.Content, error) {
	var content pdf.Content
	err := guard(func() error {
		content = h.reader.Page(page + 1).Content()
		return nil
	})
	if err != nil {
		return pdf.Content{}, fmt.Errorf("%w: page %d: %v", apperrors.ErrNotDocument, page, err)
	}
	return content, nil
}

func (h *pdfHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.reader = nil
	h.sizes = nil
	return h.file.Close()
}

func glyphs(content pdf.Content) []domain.Glyph {
	out := make([]domain.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		out = append(out, domain.Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return out
}

// mediaBox walks up the page tree since MediaBox is inheritable.
func mediaBox(p pdf.Page) domain.PageSize {
	v := p.V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			size := domain.PageSize{
				Width:  math.Abs(box.Index(2).Float64() - box.Index(0).Float64()),
				Height: math.Abs(box.Index(3).Float64() - box.Index(1).Float64()),
			}
			if size.Valid() {
				return size
			}
		}
		v = v.Key("Parent")
	}
	return domain.Letter
}

// guard converts panics from the PDF libraries into errors; both panic on
// some malformed inputs.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return fn()
}
