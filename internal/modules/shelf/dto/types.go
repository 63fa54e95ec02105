package dto

import (
	"time"

	"docshelf/internal/modules/shelf/domain"
)

type Region string

const (
	RegionLoading Region = "loading"
	RegionEmpty   Region = "empty"
	RegionGrid    Region = "grid"
	RegionDetail  Region = "detail"
)

type OpenInput struct {
	Identity string
}

// DocumentOutput references a loaded document. The shelf owns Handle; readers
// must not close it.
type DocumentOutput struct {
	Identity  string
	Title     string
	HasTitle  bool
	PageCount int
	Handle    domain.Document
}

type FailureOutput struct {
	Entry string
	Stage string
	Error string
}

// Snapshot is the presentation-facing copy of one published state.
type Snapshot struct {
	Loading     bool
	Documents   []DocumentOutput
	Selected    string
	Failures    []FailureOutput
	CatalogSize int
	Region      Region
}

func (s Snapshot) Lookup(identity string) (DocumentOutput, bool) {
	for _, doc := range s.Documents {
		if doc.Identity == identity {
			return doc, true
		}
	}
	return DocumentOutput{}, false
}

// SelectedDocument is false when nothing is selected or the selection
// dangles.
func (s Snapshot) SelectedDocument() (DocumentOutput, bool) {
	if s.Selected == "" {
		return DocumentOutput{}, false
	}
	return s.Lookup(s.Selected)
}

type EntryOutput struct {
	Entry     string
	Identity  string
	Stage     string
	Title     string
	HasTitle  bool
	PageCount int
	Error     string
}

type LoadReportOutput struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []EntryOutput
	Succeeded  int
	Failed     int
	Cancelled  bool
}
