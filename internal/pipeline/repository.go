package pipeline

import (
	"context"
	"database/sql"
)

// Repository handles database operations for run tracking.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new run-tracking repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new dataset run record and fills in its ID.
func (r *Repository) CreateRun(ctx context.Context, run *DatasetRun) error {
	query := `
		INSERT INTO dataset_runs (
			data_dir, status, sale_rows, master_rows,
			wac_coverage, inventory_coverage, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		run.DataDir, run.Status, run.SaleRows, run.MasterRows,
		run.WACCoverage, run.InvCoverage, run.StartedAt,
	).Scan(&run.ID)

	return err
}

// UpdateRun updates an existing dataset run.
func (r *Repository) UpdateRun(ctx context.Context, run *DatasetRun) error {
	query := `
		UPDATE dataset_runs
		SET status = $1, sale_rows = $2, master_rows = $3,
		    wac_coverage = $4, inventory_coverage = $5,
		    completed_at = $6, error_message = $7
		WHERE id = $8
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.SaleRows, run.MasterRows,
		run.WACCoverage, run.InvCoverage,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// GetRun retrieves a dataset run by ID.
func (r *Repository) GetRun(ctx context.Context, id int64) (*DatasetRun, error) {
	query := `
		SELECT id, data_dir, status, sale_rows, master_rows,
		       wac_coverage, inventory_coverage, started_at, completed_at, error_message
		FROM dataset_runs
		WHERE id = $1
	`

	run := &DatasetRun{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.DataDir, &run.Status, &run.SaleRows, &run.MasterRows,
		&run.WACCoverage, &run.InvCoverage,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetLatestRun retrieves the most recently started run, or nil when no run
// has ever been recorded.
func (r *Repository) GetLatestRun(ctx context.Context) (*DatasetRun, error) {
	query := `
		SELECT id, data_dir, status, sale_rows, master_rows,
		       wac_coverage, inventory_coverage, started_at, completed_at, error_message
		FROM dataset_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	run := &DatasetRun{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.DataDir, &run.Status, &run.SaleRows, &run.MasterRows,
		&run.WACCoverage, &run.InvCoverage,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns retrieves recent runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]*DatasetRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, data_dir, status, sale_rows, master_rows,
		       wac_coverage, inventory_coverage, started_at, completed_at, error_message
		FROM dataset_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*DatasetRun
	for rows.Next() {
		run := &DatasetRun{}
		err := rows.Scan(
			&run.ID, &run.DataDir, &run.Status, &run.SaleRows, &run.MasterRows,
			&run.WACCoverage, &run.InvCoverage,
			&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
