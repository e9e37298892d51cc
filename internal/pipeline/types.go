// Package pipeline orchestrates one dataset build: load canonical tables,
// allocate costs, match inventory, assemble the master dataset, derive KPIs,
// and write the finished table out. Runs are tracked in Postgres when a
// database is attached.
package pipeline

import (
	"time"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

// RunStatus is the lifecycle state of a dataset run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// DatasetRun tracks a single execution of the dataset build.
type DatasetRun struct {
	ID           int64
	DataDir      string
	Status       RunStatus
	SaleRows     int
	MasterRows   int
	WACCoverage  float64
	InvCoverage  float64
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// Config holds the knobs for one dataset build.
type Config struct {
	DataDir           string  // directory holding the canonical CSV exports
	OutputDir         string  // directory for the finished dataset CSV
	Workers           int     // parallelism for per-product cost allocation
	FlushRows         int     // rows buffered by the CSV writer between flushes
	CoverageThreshold float64 // WAC/inventory match rate below which to warn
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:           "data/canonical",
		OutputDir:         "data/seeds/master",
		Workers:           4,
		FlushRows:         10000,
		CoverageThreshold: 99.0,
	}
}

// Result is everything a completed run produced besides the CSV itself.
type Result struct {
	Run        *DatasetRun
	OutputPath string
	Validation domain.ValidationReport
	Coverage   domain.CoverageReport
	Quality    domain.QualitySummary
}
