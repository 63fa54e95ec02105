package usecase_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"docshelf/assets"
	extractadapter "docshelf/internal/modules/extract/adapter/out"
	"docshelf/internal/modules/extract/dto"
	"docshelf/internal/modules/extract/service"
	"docshelf/internal/modules/extract/usecase"
	"docshelf/internal/platform/clock"
)

func TestExtractBundledCatalogAndListManifest(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	manifest, err := extractadapter.NewSQLiteManifest(filepath.Join(dataDir, "docshelf.db"))
	if err != nil {
		t.Fatalf("new manifest: %v", err)
	}
	t.Cleanup(func() { _ = manifest.Close() })

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := service.NewExtractService(clock.Fixed{At: at}, extractadapter.NewFSAssetSource(assets.FS), manifest, filepath.Join(dataDir, "documents"), nil)
	uc := usecase.NewInteractor(svc)

	for _, name := range assets.Catalog {
		out, err := uc.Extract(context.Background(), dto.ExtractInput{Name: name, RunID: "run-1"})
		if err != nil {
			t.Fatalf("extract %s: %v", name, err)
		}
		if out.Bytes == 0 {
			t.Fatalf("extract %s wrote no bytes", name)
		}
	}
	// a second run replaces rows instead of adding them
	if _, err := uc.Extract(context.Background(), dto.ExtractInput{Name: assets.Catalog[0], RunID: "run-2"}); err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	entries, err := uc.ListManifest(context.Background())
	if err != nil {
		t.Fatalf("list manifest: %v", err)
	}
	if len(entries) != len(assets.Catalog) {
		t.Fatalf("expected %d manifest rows, got %d", len(assets.Catalog), len(entries))
	}
	runs := map[string]string{}
	for _, entry := range entries {
		runs[entry.Entry] = entry.RunID
		if !entry.ExtractedAt.Equal(at) {
			t.Fatalf("unexpected extracted_at %v", entry.ExtractedAt)
		}
	}
	if runs[assets.Catalog[0]] != "run-2" || runs[assets.Catalog[1]] != "run-1" {
		t.Fatalf("unexpected run ids %+v", runs)
	}
}
