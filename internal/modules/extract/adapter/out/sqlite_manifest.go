package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docshelf/internal/modules/extract/domain"
	extractout "docshelf/internal/modules/extract/port/out"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteManifest records which assets were extracted, where, and by which
// load run. One row per catalog entry.
type SQLiteManifest struct {
	db *sql.DB
}

func NewSQLiteManifest(dbPath string) (*SQLiteManifest, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Loaders record concurrently; serialize them on one connection.
	db.SetMaxOpenConns(1)
	manifest := &SQLiteManifest{db: db}
	if err := manifest.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return manifest, nil
}

var _ extractout.Manifest = (*SQLiteManifest)(nil)

func (m *SQLiteManifest) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS extractions (
  entry TEXT PRIMARY KEY,
  identity TEXT NOT NULL,
  path TEXT NOT NULL,
  bytes INTEGER NOT NULL,
  extracted_at TEXT NOT NULL,
  run_id TEXT NOT NULL
);
`
	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create extractions table: %w", err)
	}
	return nil
}

func (m *SQLiteManifest) Record(ctx context.Context, record domain.ManifestRecord) error {
	const stmt = `
INSERT INTO extractions (entry, identity, path, bytes, extracted_at, run_id)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(entry) DO UPDATE SET
  identity=excluded.identity,
  path=excluded.path,
  bytes=excluded.bytes,
  extracted_at=excluded.extracted_at,
  run_id=excluded.run_id;
`
	_, err := m.db.ExecContext(ctx, stmt,
		record.Entry,
		record.Identity,
		record.Path,
		record.Bytes,
		record.ExtractedAt.UTC().Format(timeLayout),
		record.RunID,
	)
	if err != nil {
		return fmt.Errorf("upsert extraction: %w", err)
	}
	return nil
}

func (m *SQLiteManifest) List(ctx context.Context) ([]domain.ManifestRecord, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT entry, identity, path, bytes, extracted_at, run_id FROM extractions ORDER BY entry`)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()
	out := []domain.ManifestRecord{}
	for rows.Next() {
		var (
			record domain.ManifestRecord
			at     string
		)
		if err := rows.Scan(&record.Entry, &record.Identity, &record.Path, &record.Bytes, &at, &record.RunID); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		parsed, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse extracted_at: %w", err)
		}
		record.ExtractedAt = parsed
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extractions: %w", err)
	}
	return out, nil
}

func (m *SQLiteManifest) Close() error {
	return m.db.Close()
}
