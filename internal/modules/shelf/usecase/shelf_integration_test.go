package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"docshelf/assets"
	documentadapter "docshelf/internal/modules/document/adapter/out"
	documentservice "docshelf/internal/modules/document/service"
	documentusecase "docshelf/internal/modules/document/usecase"
	extractadapter "docshelf/internal/modules/extract/adapter/out"
	extractservice "docshelf/internal/modules/extract/service"
	extractusecase "docshelf/internal/modules/extract/usecase"
	shelfadapter "docshelf/internal/modules/shelf/adapter/out"
	"docshelf/internal/modules/shelf/dto"
	shelfin "docshelf/internal/modules/shelf/port/in"
	"docshelf/internal/modules/shelf/service"
	"docshelf/internal/modules/shelf/usecase"
	"docshelf/internal/platform/clock"
	apperrors "docshelf/internal/platform/errors"
	"docshelf/internal/platform/id"
	"docshelf/internal/testutil/pdffixture"
)

func newPipeline(t *testing.T, files fstest.MapFS, catalog []string) (shelfin.Usecase, string) {
	t.Helper()
	dataDir := t.TempDir()
	manifest, err := extractadapter.NewSQLiteManifest(filepath.Join(dataDir, "docshelf.db"))
	if err != nil {
		t.Fatalf("new manifest: %v", err)
	}
	t.Cleanup(func() { _ = manifest.Close() })

	var source = extractadapter.NewFSAssetSource(assets.FS)
	if files != nil {
		source = extractadapter.NewFSAssetSource(files)
	}
	extractUC := extractusecase.NewInteractor(extractservice.NewExtractService(clock.SystemClock{}, source, manifest, filepath.Join(dataDir, "documents"), nil))
	documentUC := documentusecase.NewInteractor(documentservice.NewDocumentService(documentadapter.NewPDFService(documentadapter.ValidateOff, nil), nil))
	svc := service.NewShelfService(clock.SystemClock{}, &id.Sequence{Prefix: "run"},
		shelfadapter.NewExtractStage(extractUC), shelfadapter.NewDecodeStage(documentUC), nil,
		service.Options{Catalog: catalog, Parallelism: 4, ExtractTimeout: 10 * time.Second, DecodeTimeout: 10 * time.Second})
	uc := usecase.NewInteractor(svc)
	t.Cleanup(func() { _ = uc.Close() })
	return uc, dataDir
}

func TestLoadBundledCatalogEndToEnd(t *testing.T) {
	t.Parallel()
	uc, dataDir := newPipeline(t, nil, assets.Catalog)
	report, err := uc.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if report.Failed != 0 || report.Succeeded != len(assets.Catalog) {
		t.Fatalf("expected every bundled document to load, got %+v", report)
	}
	snap := uc.State(context.Background())
	if snap.Loading || snap.Region != dto.RegionGrid || len(snap.Documents) != len(assets.Catalog) {
		t.Fatalf("unexpected snapshot loading=%v region=%s docs=%d", snap.Loading, snap.Region, len(snap.Documents))
	}
	for _, doc := range snap.Documents {
		if !doc.HasTitle || doc.PageCount == 0 {
			t.Fatalf("bundled document %s lacks metadata", doc.Identity)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dataDir, "documents"))
	if err != nil {
		t.Fatalf("read extract dir: %v", err)
	}
	if len(entries) != len(assets.Catalog) {
		t.Fatalf("expected %d extracted files, got %d", len(assets.Catalog), len(entries))
	}

	first := snap.Documents[0]
	if err := uc.OpenDocument(context.Background(), dto.OpenInput{Identity: first.Identity}); err != nil {
		t.Fatalf("open: %v", err)
	}
	detail := uc.State(context.Background())
	selected, ok := detail.SelectedDocument()
	if detail.Region != dto.RegionDetail || !ok || selected.Identity != first.Identity {
		t.Fatalf("expected detail region for %s", first.Identity)
	}
	text, err := selected.Handle.PageText(context.Background(), 0)
	if err != nil || text == "" {
		t.Fatalf("expected page text, got %q (%v)", text, err)
	}
	if err := uc.CloseDocument(context.Background()); err != nil {
		t.Fatalf("close document: %v", err)
	}
	if uc.State(context.Background()).Region != dto.RegionGrid {
		t.Fatalf("expected grid after close")
	}
}

func TestLoadWithCorruptEntry(t *testing.T) {
	t.Parallel()
	files := fstest.MapFS{
		"A.pdf":   {Data: pdffixture.Bytes(pdffixture.Spec{Title: "A", Pages: []string{"alpha"}})},
		"Bad.pdf": {Data: []byte("%PDF-1.4 truncated")},
	}
	uc, _ := newPipeline(t, files, []string{"A.pdf", "Bad.pdf"})
	report, err := uc.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	snap := uc.State(context.Background())
	if len(snap.Documents) != 1 || snap.Documents[0].Title != "A" {
		t.Fatalf("expected only A, got %+v", snap.Documents)
	}
	if len(snap.Failures) != 1 || snap.Failures[0].Entry != "Bad.pdf" || snap.Failures[0].Stage != "decode" {
		t.Fatalf("unexpected failures %+v", snap.Failures)
	}
	if report.Failed != 1 || uc.LastReport(context.Background()).RunID != report.RunID {
		t.Fatalf("unexpected report %+v", report)
	}
	if err := uc.OpenDocument(context.Background(), dto.OpenInput{Identity: "file:///bad.pdf"}); !errors.Is(err, apperrors.ErrUnknownDocument) {
		t.Fatalf("expected unknown document, got %v", err)
	}
}

func TestSubscribeDeliversLatestSnapshot(t *testing.T) {
	t.Parallel()
	files := fstest.MapFS{"A.pdf": {Data: pdffixture.Bytes(pdffixture.Spec{Title: "A", Pages: []string{"alpha"}})}}
	uc, _ := newPipeline(t, files, []string{"A.pdf"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, stop := uc.Subscribe(ctx)
	defer stop()

	initial := <-updates
	if initial.Region != dto.RegionEmpty || initial.CatalogSize != 1 {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}
	if _, err := uc.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Region == dto.RegionGrid {
				cancel()
				for range updates {
				}
				return
			}
		case <-deadline:
			t.Fatalf("grid snapshot never arrived")
		}
	}
}
