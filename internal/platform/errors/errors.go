package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrNotDocument     = errors.New("not a readable document")
	ErrClosed          = errors.New("document is closed")
	ErrUnknownDocument = errors.New("document is not loaded")
)

// ExtractionError reports that a catalog entry could not be copied to local
// storage. It aborts only that entry's pipeline.
type ExtractionError struct {
	Entry string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Entry, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DecodeError reports that a local file could not be opened as a document.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
