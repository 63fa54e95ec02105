package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"docshelf/internal/modules/shelf/domain"
	shelfout "docshelf/internal/modules/shelf/port/out"
	"docshelf/internal/platform/clock"
	apperrors "docshelf/internal/platform/errors"
	"docshelf/internal/platform/id"
	"docshelf/internal/platform/state"
)

type Options struct {
	Catalog        []string
	Parallelism    int
	ExtractTimeout time.Duration
	DecodeTimeout  time.Duration
}

// ShelfService owns the application state. It is the single writer of the
// snapshot store: loads replace the document set, selection actions replace
// the selection.
type ShelfService struct {
	clock     clock.Clock
	ids       id.Generator
	extractor shelfout.Extractor
	decoder   shelfout.Decoder
	logger    hclog.Logger
	opts      Options
	store     *state.Store[domain.AppState]

	mu        sync.Mutex
	runSeq    uint64
	cancelRun context.CancelFunc
	report    domain.LoadReport
	closed    bool
}

func NewShelfService(clock clock.Clock, ids id.Generator, extractor shelfout.Extractor, decoder shelfout.Decoder, logger hclog.Logger, opts Options) *ShelfService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	opts.Catalog = append([]string(nil), opts.Catalog...)
	return &ShelfService{
		clock:     clock,
		ids:       ids,
		extractor: extractor,
		decoder:   decoder,
		logger:    logger.Named("shelf"),
		opts:      opts,
		store:     state.New(domain.Initial()),
	}
}

func (s *ShelfService) State() domain.AppState {
	return s.store.Get()
}

// Subscribe streams snapshots, starting with the current one. Slow readers
// skip intermediate snapshots but always see the latest.
func (s *ShelfService) Subscribe() (<-chan domain.AppState, func()) {
	return s.store.Subscribe()
}

func (s *ShelfService) LastReport() domain.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

func (s *ShelfService) Catalog() []string {
	return append([]string(nil), s.opts.Catalog...)
}

// LoadAll extracts and decodes every catalog entry and publishes the result
// as one snapshot. It marks the state loading first, waits for every entry to
// settle, then replaces the document set with the successes. Failed entries
// are left out and reported. A newer LoadAll cancels this one; a cancelled
// load publishes nothing and closes what it opened.
func (s *ShelfService) LoadAll(ctx context.Context) (domain.LoadReport, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.LoadReport{}, apperrors.ErrClosed
	}
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.runSeq++
	seq := s.runSeq
	s.cancelRun = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.runSeq == seq {
			s.cancelRun = nil
		}
		s.mu.Unlock()
	}()

	report := domain.LoadReport{RunID: s.ids.New(), StartedAt: s.clock.Now()}
	logger := s.logger.With("run_id", report.RunID)
	s.store.Update(func(st domain.AppState) domain.AppState {
		st.Loading = true
		return st
	})
	logger.Info("load started", "entries", len(s.opts.Catalog))

	results := make([]domain.EntryResult, len(s.opts.Catalog))
	docs := make([]domain.Document, len(s.opts.Catalog))
	g := new(errgroup.Group)
	if s.opts.Parallelism > 0 {
		g.SetLimit(s.opts.Parallelism)
	}
	for i, entry := range s.opts.Catalog {
		g.Go(func() error {
			results[i], docs[i] = s.loadEntry(runCtx, report.RunID, entry)
			return nil
		})
	}
	_ = g.Wait()
	report.FinishedAt = s.clock.Now()
	dedupe(results, docs)
	report.Results = results

	for _, res := range results {
		if !res.OK() {
			logger.Warn("entry failed", "entry", res.Entry, "stage", string(res.Stage), "error", res.Err)
		}
	}

	replaced, published := s.publish(runCtx, seq, report, docs)
	if !published {
		closeAll(docs)
		report.Cancelled = true
		logger.Info("load cancelled", "succeeded", report.Succeeded(), "failed", len(report.Failures()))
		if err := ctx.Err(); err != nil {
			return report, err
		}
		return report, context.Canceled
	}
	closeAll(replaced)
	logger.Info("load finished", "succeeded", report.Succeeded(), "failed", len(report.Failures()), "elapsed", report.FinishedAt.Sub(report.StartedAt))

	return report, nil
}

// publish swaps in the new document set unless the run was superseded or
// cancelled, or the service closed. It returns the handles the new snapshot
// no longer references.
func (s *ShelfService) publish(runCtx context.Context, seq uint64, report domain.LoadReport, docs []domain.Document) ([]domain.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.runSeq != seq || runCtx.Err() != nil {
		return nil, false
	}
	s.report = report
	results := report.Results
	next := make(map[domain.Identity]domain.Document, len(docs))
	order := make([]domain.Identity, 0, len(docs))
	var failures []domain.EntryResult
	for i, res := range results {
		if !res.OK() {
			failures = append(failures, res)
			continue
		}
		next[res.Identity] = docs[i]
		order = append(order, res.Identity)
	}
	var replaced []domain.Document
	_, ok := s.store.Update(func(st domain.AppState) domain.AppState {
		for key, old := range st.Documents {
			if next[key] != old {
				replaced = append(replaced, old)
			}
		}
		// A selection whose document did not survive the load is dropped so a
		// later load cannot reopen it unasked.
		selected := st.Selected
		if _, ok := next[selected]; !ok {
			selected = ""
		}
		return domain.AppState{
			Loading:   false,
			Documents: next,
			Order:     order,
			Selected:  selected,
			Failures:  failures,
		}
	})
	return replaced, ok
}

func (s *ShelfService) loadEntry(ctx context.Context, runID, entry string) (domain.EntryResult, domain.Document) {
	res := domain.EntryResult{Entry: entry, Stage: domain.StageExtract}

	extractCtx, cancel := s.stageContext(ctx, s.opts.ExtractTimeout)
	file, err := s.extractor.Extract(extractCtx, entry, runID)
	cancel()
	if err != nil {
		var extractErr *apperrors.ExtractionError
		if !errors.As(err, &extractErr) {
			err = &apperrors.ExtractionError{Entry: entry, Err: err}
		}
		res.Err = err
		return res, nil
	}
	res.Identity = file.Identity

	res.Stage = domain.StageDecode
	decodeCtx, cancel := s.stageContext(ctx, s.opts.DecodeTimeout)
	doc, err := s.decoder.Decode(decodeCtx, file.Path)
	cancel()
	if err != nil {
		var decodeErr *apperrors.DecodeError
		if !errors.As(err, &decodeErr) {
			err = &apperrors.DecodeError{Path: file.Path, Err: err}
		}
		res.Err = err
		return res, nil
	}
	res.Stage = domain.StageDone
	res.Title, res.HasTitle = doc.Title()
	res.PageCount = doc.PageCount()
	return res, doc
}

func (s *ShelfService) stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// OpenDocument selects a loaded document. Identities that are not loaded are
// rejected and leave the selection untouched.
func (s *ShelfService) OpenDocument(id domain.Identity) error {
	var rejected bool
	_, ok := s.store.Update(func(st domain.AppState) domain.AppState {
		if _, loaded := st.Lookup(id); !loaded {
			rejected = true
			return st
		}
		st.Selected = id
		return st
	})
	if !ok {
		return apperrors.ErrClosed
	}
	if rejected {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownDocument, id)
	}
	s.logger.Debug("document opened", "identity", string(id))
	return nil
}

// CloseDocument clears the selection. It is a no-op in the grid.
func (s *ShelfService) CloseDocument() error {
	if _, ok := s.store.Update(func(st domain.AppState) domain.AppState {
		st.Selected = ""
		return st
	}); !ok {
		return apperrors.ErrClosed
	}
	return nil
}

// Close cancels any running load, stops publishing and closes every
// document the state still holds.
func (s *ShelfService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	last := s.store.Get()
	s.store.Close()
	s.mu.Unlock()

	var errs []error
	for _, doc := range last.Documents {
		if err := doc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dedupe turns a repeated identity into a failure so each identity maps to
// exactly one entry.
func dedupe(results []domain.EntryResult, docs []domain.Document) {
	seen := map[domain.Identity]string{}
	for i := range results {
		if !results[i].OK() {
			continue
		}
		if first, dup := seen[results[i].Identity]; dup {
			if docs[i] != nil {
				_ = docs[i].Close()
				docs[i] = nil
			}
			results[i].Stage = domain.StageDecode
			results[i].Err = fmt.Errorf("%w: identity %s already loaded from %s", apperrors.ErrInvalidInput, results[i].Identity, first)
			continue
		}
		seen[results[i].Identity] = results[i].Entry
	}
}

func closeAll(docs []domain.Document) {
	for _, doc := range docs {
		if doc != nil {
			_ = doc.Close()
		}
	}
}
