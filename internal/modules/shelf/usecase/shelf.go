package usecase

import (
	"context"
	"sync"

	"docshelf/internal/modules/shelf/domain"
	"docshelf/internal/modules/shelf/dto"
	shelfin "docshelf/internal/modules/shelf/port/in"
	"docshelf/internal/modules/shelf/service"
)

type Interactor struct {
	svc *service.ShelfService
}

func NewInteractor(svc *service.ShelfService) shelfin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) LoadAll(ctx context.Context) (dto.LoadReportOutput, error) {
	report, err := i.svc.LoadAll(ctx)
	return toReport(report), err
}

func (i *Interactor) OpenDocument(_ context.Context, input dto.OpenInput) error {
	return i.svc.OpenDocument(domain.Identity(input.Identity))
}

func (i *Interactor) CloseDocument(context.Context) error {
	return i.svc.CloseDocument()
}

func (i *Interactor) State(context.Context) dto.Snapshot {
	return i.toSnapshot(i.svc.State())
}

func (i *Interactor) LastReport(context.Context) dto.LoadReportOutput {
	return toReport(i.svc.LastReport())
}

func (i *Interactor) Catalog(context.Context) []string {
	return i.svc.Catalog()
}

func (i *Interactor) Close() error {
	return i.svc.Close()
}

func (i *Interactor) Subscribe(ctx context.Context) (<-chan dto.Snapshot, func()) {
	src, cancelSrc := i.svc.Subscribe()
	out := make(chan dto.Snapshot, 1)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			cancelSrc()
		})
	}
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case st, ok := <-src:
				if !ok {
					return
				}
				snap := i.toSnapshot(st)
				// Keep only the newest snapshot for a slow reader.
				select {
				case <-out:
				default:
				}
				out <- snap
			}
		}
	}()
	return out, cancel
}

func (i *Interactor) toSnapshot(st domain.AppState) dto.Snapshot {
	snap := dto.Snapshot{
		Loading:     st.Loading,
		Selected:    string(st.Selected),
		CatalogSize: len(i.svc.Catalog()),
		Region:      toRegion(st.Region()),
		Documents:   make([]dto.DocumentOutput, 0, len(st.Order)),
	}
	for _, identity := range st.Order {
		doc, ok := st.Lookup(identity)
		if !ok {
			continue
		}
		title, hasTitle := doc.Title()
		snap.Documents = append(snap.Documents, dto.DocumentOutput{
			Identity:  string(identity),
			Title:     title,
			HasTitle:  hasTitle,
			PageCount: doc.PageCount(),
			Handle:    doc,
		})
	}
	for _, failure := range st.Failures {
		snap.Failures = append(snap.Failures, dto.FailureOutput{Entry: failure.Entry, Stage: string(failure.Stage), Error: errString(failure.Err)})
	}
	return snap
}

func toRegion(r domain.Region) dto.Region {
	switch r {
	case domain.RegionLoading:
		return dto.RegionLoading
	case domain.RegionDetail:
		return dto.RegionDetail
	case domain.RegionGrid:
		return dto.RegionGrid
	default:
		return dto.RegionEmpty
	}
}

func toReport(report domain.LoadReport) dto.LoadReportOutput {
	out := dto.LoadReportOutput{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Succeeded:  report.Succeeded(),
		Failed:     len(report.Failures()),
		Cancelled:  report.Cancelled,
		Results:    make([]dto.EntryOutput, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		out.Results = append(out.Results, dto.EntryOutput{
			Entry:     res.Entry,
			Identity:  string(res.Identity),
			Stage:     string(res.Stage),
			Title:     res.Title,
			HasTitle:  res.HasTitle,
			PageCount: res.PageCount,
			Error:     errString(res.Err),
		})
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
