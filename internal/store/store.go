// Package store persists matching runs, their results, and validation
// artifacts. Two backends are provided: SQLite for single-operator use and
// PostgreSQL for shared deployments.
package store

import (
	"context"

	"github.com/sells-group/firmlink/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status   model.RunStatus `json:"status,omitempty"`
	Registry string          `json:"registry,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the matching pipeline.
// Results are appended only after a run completes; a failed run never
// leaves partial results behind.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, registry string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, stats *model.RunStats) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Results
	AppendResults(ctx context.Context, runID string, results []model.MatchResult) error
	GetResults(ctx context.Context, runID string) ([]model.MatchResult, error)

	// Validation
	SaveSample(ctx context.Context, sample model.ValidationSample) error
	GetSample(ctx context.Context, runID string) (*model.ValidationSample, error)
	SaveReport(ctx context.Context, report model.PrecisionReport) error
	GetReport(ctx context.Context, runID string) (*model.PrecisionReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
