package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/arifi89/inventory-optimization/internal/config"
)

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// NewDB creates a new database connection pool
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	var err error
	once.Do(func() {
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", connStr)
		if err != nil {
			return
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// Initialize with a semaphore to limit concurrent operations
		dbInstance = &DB{
			DB:  db,
			sem: semaphore.NewWeighted(10), // Limit to 10 concurrent operations
		}
	})

	return dbInstance, err
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	// Acquire semaphore
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// EnsureSchema creates the tables the dataset pipeline and API depend on.
// Statements are idempotent so repeated startups are safe.
func (db *DB) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, db.DB.DB)
}

// EnsureSchema is the plain database/sql variant, used by binaries that
// connect with a URL instead of the config-driven pool.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS dataset_runs (
			id BIGSERIAL PRIMARY KEY,
			data_dir TEXT NOT NULL,
			status TEXT NOT NULL,
			sale_rows INTEGER NOT NULL DEFAULT 0,
			master_rows INTEGER NOT NULL DEFAULT 0,
			wac_coverage DOUBLE PRECISION NOT NULL DEFAULT 0,
			inventory_coverage DOUBLE PRECISION NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			error_message TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS master_records (
			sale_id TEXT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			store_id BIGINT NOT NULL,
			sale_date DATE NOT NULL,
			quantity_sold DOUBLE PRECISION NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL,
			tax DOUBLE PRECISION NOT NULL,
			wac DOUBLE PRECISION,
			freight_per_unit DOUBLE PRECISION,
			landed_cost DOUBLE PRECISION,
			snapshot_date DATE,
			snapshot_type TEXT,
			on_hand_quantity DOUBLE PRECISION,
			inventory_value DOUBLE PRECISION,
			product_description TEXT,
			product_size TEXT,
			product_category TEXT,
			store_city TEXT,
			store_state TEXT,
			store_region TEXT,
			vendor_id BIGINT,
			vendor_name TEXT,
			vendor_lead_time_days DOUBLE PRECISION,
			sale_year INTEGER NOT NULL DEFAULT 0,
			sale_quarter INTEGER NOT NULL DEFAULT 0,
			sale_month INTEGER NOT NULL DEFAULT 0,
			sale_week INTEGER NOT NULL DEFAULT 0,
			sale_weekday INTEGER NOT NULL DEFAULT 0,
			revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			purchase_cost DOUBLE PRECISION,
			freight_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
			cogs DOUBLE PRECISION,
			gross_profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			margin_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
			inventory_turnover DOUBLE PRECISION NOT NULL DEFAULT 0,
			days_of_inventory DOUBLE PRECISION NOT NULL DEFAULT 0,
			stockout_risk_flag INTEGER NOT NULL DEFAULT 0,
			overstock_risk_flag INTEGER NOT NULL DEFAULT 0,
			abc_class TEXT NOT NULL DEFAULT '',
			xyz_class TEXT NOT NULL DEFAULT '',
			abc_xyz_segment TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_master_records_segment ON master_records (abc_xyz_segment)`,
		`CREATE INDEX IF NOT EXISTS idx_master_records_sale_date ON master_records (sale_date)`,
		`CREATE INDEX IF NOT EXISTS idx_master_records_product ON master_records (product_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not ensure schema: %w", err)
		}
	}
	return nil
}
