package service_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docshelf/internal/modules/shelf/domain"
	"docshelf/internal/modules/shelf/service"
	"docshelf/internal/platform/clock"
	apperrors "docshelf/internal/platform/errors"
	"docshelf/internal/platform/id"
)

type fakeDoc struct {
	title  string
	closed atomic.Bool
}

func (d *fakeDoc) Title() (string, bool)                         { return d.title, d.title != "" }
func (d *fakeDoc) PageCount() int                                { return 3 }
func (d *fakeDoc) PageSize(int) (float64, float64, error)        { return 612, 792, nil }
func (d *fakeDoc) PageText(context.Context, int) (string, error) { return d.title, nil }
func (d *fakeDoc) Close() error {
	d.closed.Store(true)
	return nil
}
func (d *fakeDoc) RenderPage(_ context.Context, _, w, h int) (*image.Gray, error) {
	return image.NewGray(image.Rect(0, 0, w, h)), nil
}

type fakeExtractor struct {
	fail map[string]error

	mu      sync.Mutex
	active  int
	peak    int
	calls   int
	holdFor time.Duration
}

func (e *fakeExtractor) Extract(ctx context.Context, entry, _ string) (domain.LocalFile, error) {
	e.mu.Lock()
	e.calls++
	e.active++
	e.peak = max(e.peak, e.active)
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.active--
		e.mu.Unlock()
	}()
	if e.holdFor > 0 {
		time.Sleep(e.holdFor)
	}
	if err := e.fail[entry]; err != nil {
		return domain.LocalFile{}, &apperrors.ExtractionError{Entry: entry, Err: err}
	}
	path := "/data/documents/" + entry
	return domain.LocalFile{Entry: entry, Path: path, Identity: domain.Identity("file://" + path)}, nil
}

type fakeDecoder struct {
	fail map[string]error
	// gate, when set, blocks every decode until it is closed or ctx ends.
	gate chan struct{}

	mu     sync.Mutex
	opened []*fakeDoc
}

func (d *fakeDecoder) Decode(ctx context.Context, path string) (domain.Document, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, &apperrors.DecodeError{Path: path, Err: ctx.Err()}
		}
	}
	if err := d.fail[path]; err != nil {
		return nil, &apperrors.DecodeError{Path: path, Err: err}
	}
	doc := &fakeDoc{title: path}
	d.mu.Lock()
	d.opened = append(d.opened, doc)
	d.mu.Unlock()
	return doc, nil
}

func (d *fakeDecoder) docs() []*fakeDoc {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeDoc(nil), d.opened...)
}

func newShelf(ex *fakeExtractor, dec *fakeDecoder, catalog ...string) *service.ShelfService {
	return service.NewShelfService(
		clock.Fixed{At: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		&id.Sequence{Prefix: "run"},
		ex, dec, nil,
		service.Options{Catalog: catalog, Parallelism: 4, ExtractTimeout: time.Second, DecodeTimeout: time.Second},
	)
}

func identity(entry string) domain.Identity {
	return domain.Identity("file:///data/documents/" + entry)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestInitialState(t *testing.T) {
	t.Parallel()
	shelf := newShelf(&fakeExtractor{}, &fakeDecoder{}, "A.doc")
	st := shelf.State()
	if st.Loading || len(st.Documents) != 0 || st.Selected != "" || st.Region() != domain.RegionEmpty {
		t.Fatalf("unexpected initial state %+v", st)
	}
}

func TestLoadAllPublishesEveryEntry(t *testing.T) {
	t.Parallel()
	shelf := newShelf(&fakeExtractor{}, &fakeDecoder{}, "A.doc", "B.doc")
	report, err := shelf.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	st := shelf.State()
	if st.Loading || st.Selected != "" {
		t.Fatalf("unexpected final flags %+v", st)
	}
	if len(st.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(st.Documents))
	}
	if st.Order[0] != identity("A.doc") || st.Order[1] != identity("B.doc") {
		t.Fatalf("expected catalog order, got %v", st.Order)
	}
	if report.RunID != "run-1" || report.Succeeded() != 2 || len(report.Failures()) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if shelf.LastReport().RunID != "run-1" {
		t.Fatalf("last report not retained")
	}
}

func TestLoadAllDropsFailedEntries(t *testing.T) {
	t.Parallel()
	ex := &fakeExtractor{fail: map[string]error{"Missing.doc": apperrors.ErrAssetNotFound}}
	dec := &fakeDecoder{fail: map[string]error{"/data/documents/Bad.doc": apperrors.ErrNotDocument}}
	shelf := newShelf(ex, dec, "A.doc", "Bad.doc", "Missing.doc")

	report, err := shelf.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("partial failures must not fail the batch: %v", err)
	}
	st := shelf.State()
	if len(st.Documents) != 1 {
		t.Fatalf("expected only A loaded, got %d", len(st.Documents))
	}
	if _, ok := st.Documents[identity("A.doc")]; !ok {
		t.Fatalf("A missing from documents")
	}
	if len(st.Failures) != 2 {
		t.Fatalf("expected 2 failures in snapshot, got %d", len(st.Failures))
	}
	byEntry := map[string]domain.EntryResult{}
	for _, f := range report.Failures() {
		byEntry[f.Entry] = f
	}
	var decodeErr *apperrors.DecodeError
	if f := byEntry["Bad.doc"]; f.Stage != domain.StageDecode || !errors.As(f.Err, &decodeErr) {
		t.Fatalf("unexpected decode failure %+v", f)
	}
	var extractErr *apperrors.ExtractionError
	if f := byEntry["Missing.doc"]; f.Stage != domain.StageExtract || !errors.As(f.Err, &extractErr) {
		t.Fatalf("unexpected extract failure %+v", f)
	}
}

func TestLoadingKeepsPreviousDocumentsUntilSettled(t *testing.T) {
	t.Parallel()
	dec := &fakeDecoder{}
	shelf := newShelf(&fakeExtractor{}, dec, "A.doc", "B.doc")
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	before := shelf.State()

	dec.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := shelf.LoadAll(context.Background())
		done <- err
	}()
	waitFor(t, func() bool { return shelf.State().Loading })

	mid := shelf.State()
	if len(mid.Documents) != len(before.Documents) {
		t.Fatalf("documents changed mid-load")
	}
	for key, doc := range before.Documents {
		if mid.Documents[key] != doc {
			t.Fatalf("document %s replaced mid-load", key)
		}
	}
	if mid.Region() != domain.RegionLoading {
		t.Fatalf("expected loading region, got %s", mid.Region())
	}

	close(dec.gate)
	if err := <-done; err != nil {
		t.Fatalf("second load: %v", err)
	}
	after := shelf.State()
	if after.Loading {
		t.Fatalf("loading must clear after settle")
	}
	for key := range before.Documents {
		if _, ok := after.Documents[key]; !ok {
			t.Fatalf("reload lost key %s", key)
		}
		if after.Documents[key] == before.Documents[key] {
			t.Fatalf("reload must replace handles")
		}
		if !before.Documents[key].(*fakeDoc).closed.Load() {
			t.Fatalf("replaced handle %s must be closed", key)
		}
	}
}

func TestSubscribersNeverSeeHalfUpdatedState(t *testing.T) {
	t.Parallel()
	catalog := make([]string, 12)
	for i := range catalog {
		catalog[i] = fmt.Sprintf("Doc-%02d.doc", i)
	}
	shelf := newShelf(&fakeExtractor{holdFor: time.Millisecond}, &fakeDecoder{}, catalog...)
	updates, cancel := shelf.Subscribe()
	defer cancel()

	first := <-updates
	if first.Loading || len(first.Documents) != 0 {
		t.Fatalf("subscription must be primed with the initial state")
	}
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("load all: %v", err)
	}
	for {
		select {
		case st := <-updates:
			if st.Loading && len(st.Documents) != 0 {
				t.Fatalf("observed partially loaded documents while loading")
			}
			if !st.Loading {
				if len(st.Documents) != len(catalog) {
					t.Fatalf("expected %d documents, got %d", len(catalog), len(st.Documents))
				}
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no final snapshot")
		}
	}
}

func TestLoadAllTwiceKeepsSameKeys(t *testing.T) {
	t.Parallel()
	shelf := newShelf(&fakeExtractor{}, &fakeDecoder{}, "A.doc", "B.doc", "C.doc")
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	first := shelf.State().Order
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	second := shelf.State().Order
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Fatalf("keys differ between loads: %v vs %v", first, second)
	}
}

func TestOpenAndCloseDocument(t *testing.T) {
	t.Parallel()
	shelf := newShelf(&fakeExtractor{}, &fakeDecoder{}, "A.doc", "B.doc")
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := shelf.State()

	if err := shelf.OpenDocument(identity("A.doc")); err != nil {
		t.Fatalf("open: %v", err)
	}
	opened := shelf.State()
	if opened.Selected != identity("A.doc") || opened.Region() != domain.RegionDetail {
		t.Fatalf("expected detail on A, got %+v", opened)
	}
	if err := shelf.CloseDocument(); err != nil {
		t.Fatalf("close: %v", err)
	}
	closed := shelf.State()
	if closed.Selected != "" || closed.Loading != before.Loading || len(closed.Documents) != len(before.Documents) {
		t.Fatalf("close must restore the pre-open state, got %+v", closed)
	}
	for key, doc := range before.Documents {
		if closed.Documents[key] != doc {
			t.Fatalf("selection must not touch documents")
		}
	}
}

func TestOpenUnknownDocumentIsRejected(t *testing.T) {
	t.Parallel()
	shelf := newShelf(&fakeExtractor{}, &fakeDecoder{}, "A.doc")
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := shelf.OpenDocument(identity("A.doc")); err != nil {
		t.Fatalf("open: %v", err)
	}
	err := shelf.OpenDocument("file:///nowhere.doc")
	if !errors.Is(err, apperrors.ErrUnknownDocument) {
		t.Fatalf("expected unknown document, got %v", err)
	}
	if shelf.State().Selected != identity("A.doc") {
		t.Fatalf("rejected open must not change the selection")
	}
}

func TestReloadDropsSelectionOfFailedDocument(t *testing.T) {
	t.Parallel()
	dec := &fakeDecoder{}
	shelf := newShelf(&fakeExtractor{}, dec, "A.doc", "B.doc")
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := shelf.OpenDocument(identity("B.doc")); err != nil {
		t.Fatalf("open: %v", err)
	}
	dec.fail = map[string]error{"/data/documents/B.doc": apperrors.ErrNotDocument}
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	st := shelf.State()
	if st.Selected != "" || st.Region() != domain.RegionGrid {
		t.Fatalf("failed document must leave detail, got selected=%q region=%s", st.Selected, st.Region())
	}

	dec.fail = nil
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("recovering reload: %v", err)
	}
	st = shelf.State()
	if _, ok := st.Documents[identity("B.doc")]; !ok {
		t.Fatalf("B should load again")
	}
	if st.Selected != "" || st.Region() != domain.RegionGrid {
		t.Fatalf("recovered document must not reopen detail, got selected=%q", st.Selected)
	}
}

func TestReloadKeepsSelectionOfSurvivingDocument(t *testing.T) {
	t.Parallel()
	shelf := newShelf(&fakeExtractor{}, &fakeDecoder{}, "A.doc", "B.doc")
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := shelf.OpenDocument(identity("A.doc")); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if st := shelf.State(); st.Selected != identity("A.doc") || st.Region() != domain.RegionDetail {
		t.Fatalf("surviving selection must stay in detail, got %+v", st)
	}
}

func TestNewerLoadCancelsOlder(t *testing.T) {
	t.Parallel()
	dec := &fakeDecoder{gate: make(chan struct{})}
	shelf := newShelf(&fakeExtractor{}, dec, "A.doc")

	firstDone := make(chan error, 1)
	go func() {
		_, err := shelf.LoadAll(context.Background())
		firstDone <- err
	}()
	waitFor(t, func() bool { return shelf.State().Loading })

	secondDone := make(chan error, 1)
	go func() {
		_, err := shelf.LoadAll(context.Background())
		secondDone <- err
	}()
	if err := <-firstDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("superseded load must report cancellation, got %v", err)
	}
	close(dec.gate)
	if err := <-secondDone; err != nil {
		t.Fatalf("second load: %v", err)
	}
	st := shelf.State()
	if st.Loading || len(st.Documents) != 1 {
		t.Fatalf("unexpected state after latest load %+v", st)
	}
	if shelf.LastReport().RunID != "run-2" {
		t.Fatalf("expected run-2 to own the report, got %s", shelf.LastReport().RunID)
	}
}

func TestStageTimeoutIsAFailure(t *testing.T) {
	t.Parallel()
	dec := &fakeDecoder{gate: make(chan struct{})}
	shelf := service.NewShelfService(clock.SystemClock{}, id.UUID{}, &fakeExtractor{}, dec, nil,
		service.Options{Catalog: []string{"Slow.doc"}, DecodeTimeout: 20 * time.Millisecond, ExtractTimeout: time.Second})
	report, err := shelf.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("timeouts are per entry: %v", err)
	}
	failures := report.Failures()
	if len(failures) != 1 || !errors.Is(failures[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %+v", failures)
	}
	if len(shelf.State().Documents) != 0 {
		t.Fatalf("timed out entry must be dropped")
	}
}

func TestParallelismIsBounded(t *testing.T) {
	t.Parallel()
	ex := &fakeExtractor{holdFor: 5 * time.Millisecond}
	shelf := service.NewShelfService(clock.SystemClock{}, id.UUID{}, ex, &fakeDecoder{}, nil,
		service.Options{Catalog: []string{"1", "2", "3", "4", "5", "6", "7", "8"}, Parallelism: 2})
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ex.peak > 2 {
		t.Fatalf("expected at most 2 concurrent extractions, saw %d", ex.peak)
	}
	if ex.calls != 8 {
		t.Fatalf("expected 8 extractions, got %d", ex.calls)
	}
}

func TestCloseStopsPublishingAndReleasesDocuments(t *testing.T) {
	t.Parallel()
	dec := &fakeDecoder{}
	shelf := newShelf(&fakeExtractor{}, dec, "A.doc", "B.doc")
	if _, err := shelf.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	updates, cancel := shelf.Subscribe()
	defer cancel()
	<-updates

	if err := shelf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, doc := range dec.docs() {
		if !doc.closed.Load() {
			t.Fatalf("close must release %s", doc.title)
		}
	}
	if _, ok := <-updates; ok {
		t.Fatalf("subscription must end on close")
	}
	if _, err := shelf.LoadAll(context.Background()); !errors.Is(err, apperrors.ErrClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
	if err := shelf.OpenDocument(identity("A.doc")); !errors.Is(err, apperrors.ErrClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
}

func TestCloseDuringLoadDiscardsResults(t *testing.T) {
	t.Parallel()
	dec := &fakeDecoder{gate: make(chan struct{})}
	shelf := newShelf(&fakeExtractor{}, dec, "A.doc")
	done := make(chan error, 1)
	go func() {
		_, err := shelf.LoadAll(context.Background())
		done <- err
	}()
	waitFor(t, func() bool { return shelf.State().Loading })
	if err := shelf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled load, got %v", err)
	}
	if len(shelf.State().Documents) != 0 {
		t.Fatalf("cancelled load must not publish")
	}
}
