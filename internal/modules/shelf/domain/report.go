package domain

import "time"

type Stage string

const (
	StageExtract Stage = "extract"
	StageDecode  Stage = "decode"
	StageDone    Stage = "done"
)

// EntryResult is the outcome of one catalog entry. Err is nil on success;
// Stage then is StageDone.
type EntryResult struct {
	Entry     string
	Identity  Identity
	Stage     Stage
	Title     string
	HasTitle  bool
	PageCount int
	Err       error
}

func (r EntryResult) OK() bool {
	return r.Err == nil
}

type LoadReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []EntryResult
	Cancelled  bool
}

func (r LoadReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

func (r LoadReport) Failures() []EntryResult {
	var out []EntryResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// LocalFile is the extraction result the orchestrator needs.
type LocalFile struct {
	Entry    string
	Path     string
	Identity Identity
}
