package dto

import (
	"image"

	documentout "docshelf/internal/modules/document/port/out"
)

type OpenInput struct {
	Path string
}

// InspectInput names a document and the zero-based page whose size is
// reported.
type InspectInput struct {
	Path string
	Page int
}

type DocumentOutput struct {
	Path      string
	Title     string
	HasTitle  bool
	PageCount int
	Handle    documentout.Handle
}

type InfoOutput struct {
	Path       string
	Title      string
	HasTitle   bool
	PageCount  int
	Page       int
	PageWidth  float64
	PageHeight float64
}

type RenderInput struct {
	Path   string
	Page   int
	Width  int
	Height int
}

type RenderOutput struct {
	Info  InfoOutput
	Page  int
	Image *image.Gray
	Text  string
}
