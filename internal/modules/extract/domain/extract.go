package domain

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ExtractedFile is the local copy of one bundled catalog entry. It is
// overwritten on every load; there is no versioning.
type ExtractedFile struct {
	Entry       string
	Path        string
	Identity    string
	Bytes       int64
	ExtractedAt time.Time
}

// ManifestRecord is one row of the extraction cache manifest.
type ManifestRecord struct {
	ExtractedFile
	RunID string
}

// IdentityFor returns the file URI that addresses the extracted file and,
// later, the document decoded from it.
func IdentityFor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String(), nil
}
