package model

import "time"

// Warning codes attached to partial-failure outcomes.
const (
	WarnCoverageIncomplete = "coverage_incomplete"
	WarnTileFailed         = "tile_failed"
	WarnPageFailed         = "page_failed"
	WarnDetailsUnavailable = "details_unavailable"
	WarnQuotaExceeded      = "quota_exceeded"
)

// Warning reports a failure local to one tile/page/place that did not abort
// the run. Consumers should surface these as "results may be incomplete".
type Warning struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// RunStatus tracks a run's lifecycle in the store.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a stored pipeline invocation.
type Run struct {
	ID          string      `json:"id"`
	Query       SearchQuery `json:"query"`
	Status      RunStatus   `json:"status"`
	Warnings    []Warning   `json:"warnings,omitempty"`
	PlaceCount  int         `json:"place_count"`
	ReviewCount int         `json:"review_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RunResult is the full dataset produced by one pipeline run.
type RunResult struct {
	RunID           string        `json:"run_id,omitempty"`
	Query           SearchQuery   `json:"query"`
	ResolvedAddress string        `json:"resolved_address,omitempty"`
	Places          []Place       `json:"places"`
	Reviews         []Review      `json:"reviews"`
	Analytics       []AnalyticRow `json:"analytics"`
	Warnings        []Warning     `json:"warnings,omitempty"`
}

// Status derives the stored status from the warnings attached to a result.
func (r *RunResult) Status() RunStatus {
	if len(r.Warnings) > 0 {
		return RunStatusPartial
	}
	return RunStatusComplete
}
