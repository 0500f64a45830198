// Package store persists the cleaned accident table and analysis-run
// metadata. SQLite is the default backend; Postgres is available for
// shared deployments.
package store

import (
	"context"

	"github.com/statadvice/accidents/internal/model"
)

// Store defines the persistence interface for the analysis batch.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, run model.AnalysisRun) error
	FinishRun(ctx context.Context, run model.AnalysisRun) error
	ListRuns(ctx context.Context, limit int) ([]model.AnalysisRun, error)

	// Cleaned accidents; Replace swaps the whole table for a run.
	ReplaceAccidents(ctx context.Context, records []model.AccidentRecord) error
	CountAccidents(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
