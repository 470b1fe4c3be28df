package model

import "time"

// RunStatus represents the current state of a matching run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// SkipReason categorizes why an input record was excluded from a run.
type SkipReason string

const (
	SkipMalformedEntity SkipReason = "malformed_entity"
	SkipMalformedFirm   SkipReason = "malformed_firm"
	SkipBelowThreshold  SkipReason = "below_threshold"
	SkipNoCandidate     SkipReason = "no_candidate"
)

// Run represents a single resolution run over one registry snapshot and one
// raw-entity set.
type Run struct {
	ID         string    `json:"id"`
	Registry   string    `json:"registry"` // label for the registry snapshot used
	Status     RunStatus `json:"status"`
	Stats      *RunStats `json:"stats,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// RunStats accumulates per-run counters. It is built up by the pipeline and
// returned as an explicit value; nothing in the matcher keeps global state.
type RunStats struct {
	Entities   int `json:"entities"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	Ties       int `json:"ties"` // equally-ranked candidate sets broken by confidence
	Suppressed int `json:"suppressed"`

	Skips      map[SkipReason]int `json:"skips,omitempty"`
	ByStrategy map[Strategy]int   `json:"by_strategy,omitempty"`

	// AnomalousFirms lists firms whose results were suppressed by the
	// fan-out pass, with the observed fan-out count.
	AnomalousFirms map[string]int `json:"anomalous_firms,omitempty"`
}

// NewRunStats returns a RunStats with all maps allocated.
func NewRunStats() *RunStats {
	return &RunStats{
		Skips:          make(map[SkipReason]int),
		ByStrategy:     make(map[Strategy]int),
		AnomalousFirms: make(map[string]int),
	}
}

// Skip records one skipped record under the given reason.
func (s *RunStats) Skip(reason SkipReason) {
	s.Skips[reason]++
}

// Merge folds counters from another stats value into s. Used when per-worker
// accumulators are combined at the end of the parallel phase.
func (s *RunStats) Merge(other *RunStats) {
	if other == nil {
		return
	}
	s.Entities += other.Entities
	s.Matched += other.Matched
	s.Unmatched += other.Unmatched
	s.Ties += other.Ties
	s.Suppressed += other.Suppressed
	for k, v := range other.Skips {
		s.Skips[k] += v
	}
	for k, v := range other.ByStrategy {
		s.ByStrategy[k] += v
	}
	for k, v := range other.AnomalousFirms {
		s.AnomalousFirms[k] += v
	}
}
