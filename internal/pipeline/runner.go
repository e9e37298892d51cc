package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arifi89/inventory-optimization/internal/dataset"
	"github.com/arifi89/inventory-optimization/internal/domain"
	"github.com/arifi89/inventory-optimization/internal/engine/assembly"
	"github.com/arifi89/inventory-optimization/internal/engine/costing"
	"github.com/arifi89/inventory-optimization/internal/engine/kpi"
	"github.com/arifi89/inventory-optimization/internal/engine/matching"
	"github.com/arifi89/inventory-optimization/pkg/logger"
)

// Runner executes one dataset build end to end.
type Runner struct {
	config Config
	repo   *Repository // nil when runs are not tracked in a database
	writer *Writer
}

// NewRunner creates a runner. repo may be nil for untracked local runs and
// seedCallback may be nil when no database seeding is wanted.
func NewRunner(config Config, repo *Repository, seedCallback func(ctx context.Context, csvPath string) error) *Runner {
	return &Runner{
		config: config,
		repo:   repo,
		writer: NewWriter(config, seedCallback),
	}
}

// Run builds the master dataset: load, validate, allocate costs and match
// inventory concurrently, assemble, derive KPIs, write the CSV, seed.
// The derived stages are deterministic, so rerunning over the same inputs
// produces a byte-identical dataset.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	run := &DatasetRun{
		DataDir:   r.config.DataDir,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}
	if err := r.createRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create dataset run: %w", err)
	}

	result, err := r.build(ctx, run)
	if err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		now := time.Now()
		run.CompletedAt = &now
		r.updateRun(ctx, run)
		return nil, err
	}

	run.Status = StatusCompleted
	now := time.Now()
	run.CompletedAt = &now
	if err := r.updateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to complete dataset run: %w", err)
	}

	logger.Log.Info().
		Int("sales", run.SaleRows).
		Int("master_rows", run.MasterRows).
		Float64("wac_coverage", run.WACCoverage).
		Float64("inventory_coverage", run.InvCoverage).
		Dur("elapsed", time.Since(run.StartedAt)).
		Msg("Dataset run completed")

	return result, nil
}

func (r *Runner) build(ctx context.Context, run *DatasetRun) (*Result, error) {
	tables, err := dataset.NewLoader(r.config.DataDir).LoadAll()
	if err != nil {
		return nil, err
	}
	run.SaleRows = len(tables.Sales)
	run.Status = StatusProcessing
	if err := r.updateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update dataset run: %w", err)
	}

	validation := dataset.Validate(tables)

	// Cost allocation and inventory matching read disjoint inputs, so they
	// run concurrently. Assembly needs both.
	var (
		wac     map[int64]domain.WACRecord
		matches []domain.SnapshotMatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wac, err = costing.NewEngine(r.config.Workers).Allocate(gctx, tables.Purchases)
		if err != nil {
			return fmt.Errorf("cost allocation failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		matches = matching.NewMatcher(tables.Snapshots).MatchAll(tables.Sales)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assembler := assembly.NewAssembler(wac, tables.Dimensions)
	masters, coverage, err := assembler.Assemble(tables.Sales, matches)
	if err != nil {
		return nil, fmt.Errorf("assembly failed: %w", err)
	}
	assembly.LogCoverage(coverage, r.config.CoverageThreshold)

	records, quality := kpi.NewEngine().Compute(masters)

	outputPath, err := r.writer.WriteDataset(ctx, records)
	if err != nil {
		return nil, err
	}

	run.MasterRows = len(records)
	run.WACCoverage = coverage.WACCoveragePct()
	run.InvCoverage = coverage.InventoryCoveragePct()

	return &Result{
		Run:        run,
		OutputPath: outputPath,
		Validation: validation,
		Coverage:   coverage,
		Quality:    quality,
	}, nil
}

func (r *Runner) createRun(ctx context.Context, run *DatasetRun) error {
	if r.repo == nil {
		return nil
	}
	return r.repo.CreateRun(ctx, run)
}

func (r *Runner) updateRun(ctx context.Context, run *DatasetRun) error {
	if r.repo == nil {
		return nil
	}
	return r.repo.UpdateRun(ctx, run)
}
