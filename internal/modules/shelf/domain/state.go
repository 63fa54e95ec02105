package domain

import (
	"context"
	"image"
)

// Identity addresses one loaded document. It is the file URI of the
// extracted copy and stays stable across reloads.
type Identity string

// Document is an open, decoded document. Pages are zero-based.
type Document interface {
	Title() (string, bool)
	PageCount() int
	PageSize(page int) (float64, float64, error)
	RenderPage(ctx context.Context, page, width, height int) (*image.Gray, error)
	PageText(ctx context.Context, page int) (string, error)
	Close() error
}

// AppState is one immutable snapshot. Writers build a new value and publish
// it whole; the Documents map of a published snapshot is never mutated.
type AppState struct {
	Loading   bool
	Documents map[Identity]Document
	// Order lists the keys of Documents in catalog order.
	Order    []Identity
	Selected Identity
	Failures []EntryResult
}

// Initial is the state at attach time: grid, idle, nothing loaded.
func Initial() AppState {
	return AppState{Documents: map[Identity]Document{}}
}

func (s AppState) Lookup(id Identity) (Document, bool) {
	doc, ok := s.Documents[id]
	return doc, ok && doc != nil
}

// SelectedDocument reports the document behind the selection. A selection
// whose identity is not loaded is dangling and yields false.
func (s AppState) SelectedDocument() (Document, bool) {
	if s.Selected == "" {
		return nil, false
	}
	return s.Lookup(s.Selected)
}

type Region int

const (
	RegionLoading Region = iota
	RegionEmpty
	RegionGrid
	RegionDetail
)

func (r Region) String() string {
	switch r {
	case RegionLoading:
		return "loading"
	case RegionEmpty:
		return "empty"
	case RegionGrid:
		return "grid"
	case RegionDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Region picks the single visible region for a snapshot. An open document
// stays on screen while a reload runs; a dangling selection falls back to
// the grid.
func (s AppState) Region() Region {
	if _, ok := s.SelectedDocument(); ok {
		return RegionDetail
	}
	if s.Loading {
		return RegionLoading
	}
	if len(s.Documents) == 0 {
		return RegionEmpty
	}
	return RegionGrid
}
