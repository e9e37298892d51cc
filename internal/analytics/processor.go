// Package analytics seeds the finished master dataset CSV into Postgres so
// the dashboard API can serve it. Seeding is idempotent: rows upsert on
// sale_id, so re-seeding after a pipeline rerun converges to the same state.
package analytics

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arifi89/inventory-optimization/pkg/logger"
)

// Processor loads dataset CSVs into the master_records table.
type Processor struct {
	db *sql.DB
}

// NewProcessor creates a seeding processor over an open database handle.
func NewProcessor(db *sql.DB) *Processor {
	return &Processor{db: db}
}

// Open connects to Postgres through the pgx stdlib driver.
func Open(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

const upsertMasterRecord = `
	INSERT INTO master_records (
		sale_id, product_id, store_id, sale_date,
		quantity_sold, unit_price, tax,
		wac, freight_per_unit, landed_cost,
		snapshot_date, snapshot_type, on_hand_quantity, inventory_value,
		product_description, product_size, product_category,
		store_city, store_state, store_region,
		vendor_id, vendor_name, vendor_lead_time_days,
		sale_year, sale_quarter, sale_month, sale_week, sale_weekday,
		revenue, purchase_cost, freight_cost, cogs,
		gross_profit, margin_percent,
		inventory_turnover, days_of_inventory,
		stockout_risk_flag, overstock_risk_flag,
		abc_class, xyz_class, abc_xyz_segment,
		updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		$31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41,
		NOW()
	)
	ON CONFLICT (sale_id)
	DO UPDATE SET
		wac = EXCLUDED.wac,
		freight_per_unit = EXCLUDED.freight_per_unit,
		landed_cost = EXCLUDED.landed_cost,
		snapshot_date = EXCLUDED.snapshot_date,
		snapshot_type = EXCLUDED.snapshot_type,
		on_hand_quantity = EXCLUDED.on_hand_quantity,
		inventory_value = EXCLUDED.inventory_value,
		product_description = EXCLUDED.product_description,
		product_size = EXCLUDED.product_size,
		product_category = EXCLUDED.product_category,
		store_city = EXCLUDED.store_city,
		store_state = EXCLUDED.store_state,
		store_region = EXCLUDED.store_region,
		vendor_id = EXCLUDED.vendor_id,
		vendor_name = EXCLUDED.vendor_name,
		vendor_lead_time_days = EXCLUDED.vendor_lead_time_days,
		revenue = EXCLUDED.revenue,
		purchase_cost = EXCLUDED.purchase_cost,
		freight_cost = EXCLUDED.freight_cost,
		cogs = EXCLUDED.cogs,
		gross_profit = EXCLUDED.gross_profit,
		margin_percent = EXCLUDED.margin_percent,
		inventory_turnover = EXCLUDED.inventory_turnover,
		days_of_inventory = EXCLUDED.days_of_inventory,
		stockout_risk_flag = EXCLUDED.stockout_risk_flag,
		overstock_risk_flag = EXCLUDED.overstock_risk_flag,
		abc_class = EXCLUDED.abc_class,
		xyz_class = EXCLUDED.xyz_class,
		abc_xyz_segment = EXCLUDED.abc_xyz_segment,
		updated_at = NOW()
`

// ProcessFile seeds one master dataset CSV into master_records. The whole
// file is committed in a single transaction so a partially seeded dataset
// is never visible to the API.
func (p *Processor) ProcessFile(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[col] = i
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertMasterRecord)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	processedCount := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading record: %w", err)
		}

		row := csvRow{record: record, colMap: colMap}
		_, err = stmt.ExecContext(ctx,
			row.str("sale_id"),
			row.intVal("product_id"),
			row.intVal("store_id"),
			row.date("sale_date"),
			row.floatVal("quantity_sold"),
			row.floatVal("unit_price"),
			row.floatVal("tax"),
			row.nullFloat("wac"),
			row.nullFloat("freight_per_unit"),
			row.nullFloat("landed_cost"),
			row.nullDate("snapshot_date"),
			row.nullStr("snapshot_type"),
			row.nullFloat("on_hand_quantity"),
			row.nullFloat("inventory_value"),
			row.nullStr("product_description"),
			row.nullStr("product_size"),
			row.nullStr("product_category"),
			row.nullStr("store_city"),
			row.nullStr("store_state"),
			row.nullStr("store_region"),
			row.nullInt("vendor_id"),
			row.nullStr("vendor_name"),
			row.nullFloat("vendor_lead_time_days"),
			row.intVal("sale_year"),
			row.intVal("sale_quarter"),
			row.intVal("sale_month"),
			row.intVal("sale_week"),
			row.intVal("sale_weekday"),
			row.floatVal("revenue"),
			row.nullFloat("purchase_cost"),
			row.floatVal("freight_cost"),
			row.nullFloat("cogs"),
			row.floatVal("gross_profit"),
			row.floatVal("margin_percent"),
			row.floatVal("inventory_turnover"),
			row.floatVal("days_of_inventory"),
			row.intVal("stockout_risk_flag"),
			row.intVal("overstock_risk_flag"),
			row.str("abc_class"),
			row.str("xyz_class"),
			row.str("abc_xyz_segment"),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert record: %w", err)
		}
		processedCount++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Log.Info().
		Int("rows", processedCount).
		Str("file", filePath).
		Msg("Seeded master dataset")

	return nil
}

// csvRow reads typed values out of one CSV record by column name. Absent
// columns and empty cells map to NULLs or zero values so a degraded dataset
// still seeds.
type csvRow struct {
	record []string
	colMap map[string]int
}

func (r csvRow) str(col string) string {
	idx, ok := r.colMap[col]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return r.record[idx]
}

func (r csvRow) intVal(col string) int64 {
	n, _ := strconv.ParseInt(r.str(col), 10, 64)
	return n
}

func (r csvRow) floatVal(col string) float64 {
	f, _ := strconv.ParseFloat(r.str(col), 64)
	return f
}

func (r csvRow) date(col string) time.Time {
	t, _ := time.Parse("2006-01-02", r.str(col))
	return t
}

func (r csvRow) nullStr(col string) sql.NullString {
	v := r.str(col)
	return sql.NullString{String: v, Valid: v != ""}
}

func (r csvRow) nullFloat(col string) sql.NullFloat64 {
	v := r.str(col)
	if v == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func (r csvRow) nullInt(col string) sql.NullInt64 {
	v := r.str(col)
	if v == "" {
		return sql.NullInt64{}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func (r csvRow) nullDate(col string) sql.NullTime {
	v := r.str(col)
	if v == "" {
		return sql.NullTime{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
