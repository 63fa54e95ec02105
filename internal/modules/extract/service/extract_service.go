package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"docshelf/internal/modules/extract/domain"
	extractout "docshelf/internal/modules/extract/port/out"
	"docshelf/internal/platform/clock"
	apperrors "docshelf/internal/platform/errors"
	"docshelf/internal/platform/slug"
)

type ExtractService struct {
	clock    clock.Clock
	source   extractout.AssetSource
	manifest extractout.Manifest
	dir      string
	logger   hclog.Logger
}

// NewExtractService copies assets into dir. manifest may be nil.
func NewExtractService(clock clock.Clock, source extractout.AssetSource, manifest extractout.Manifest, dir string, logger hclog.Logger) *ExtractService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ExtractService{clock: clock, source: source, manifest: manifest, dir: dir, logger: logger.Named("extract")}
}

// Extract copies the named asset to a fixed local path, replacing any
// previous copy. The file is written under a temporary name and renamed, so
// readers never see a partial document. Every failure is an
// *apperrors.ExtractionError.
func (s *ExtractService) Extract(ctx context.Context, name, runID string) (domain.ExtractedFile, error) {
	if strings.TrimSpace(name) == "" {
		return domain.ExtractedFile{}, &apperrors.ExtractionError{Entry: name, Err: fmt.Errorf("%w: asset name is required", apperrors.ErrInvalidInput)}
	}
	file, err := s.extract(ctx, name)
	if err != nil {
		return domain.ExtractedFile{}, &apperrors.ExtractionError{Entry: name, Err: err}
	}
	s.logger.Debug("asset extracted", "entry", name, "path", file.Path, "bytes", file.Bytes)
	if s.manifest != nil {
		if err := s.manifest.Record(ctx, domain.ManifestRecord{ExtractedFile: file, RunID: runID}); err != nil {
			s.logger.Warn("manifest record failed", "entry", name, "error", err)
		}
	}
	return file, nil
}

func (s *ExtractService) extract(ctx context.Context, name string) (domain.ExtractedFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractedFile{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.ExtractedFile{}, fmt.Errorf("create extract dir: %w", err)
	}
	src, err := s.source.Open(ctx, name)
	if err != nil {
		return domain.ExtractedFile{}, err
	}
	defer src.Close()

	local := slug.FileName(name)
	dest := filepath.Join(s.dir, local)
	tmp, err := os.CreateTemp(s.dir, "."+local+".*.tmp")
	if err != nil {
		return domain.ExtractedFile{}, fmt.Errorf("create temp file: %w", err)
	}
	written, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: src})
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return domain.ExtractedFile{}, fmt.Errorf("copy asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return domain.ExtractedFile{}, fmt.Errorf("replace %s: %w", local, err)
	}
	identity, err := domain.IdentityFor(dest)
	if err != nil {
		return domain.ExtractedFile{}, err
	}
	return domain.ExtractedFile{
		Entry:       name,
		Path:        dest,
		Identity:    identity,
		Bytes:       written,
		ExtractedAt: s.clock.Now(),
	}, nil
}

func (s *ExtractService) Manifest(ctx context.Context) ([]domain.ManifestRecord, error) {
	if s.manifest == nil {
		return nil, nil
	}
	return s.manifest.List(ctx)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
