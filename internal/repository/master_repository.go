package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

// MasterRepository reads the seeded master dataset for the dashboard API.
type MasterRepository interface {
	GetSegmentSummaries(ctx context.Context, filter domain.MasterFilter) ([]domain.SegmentSummary, error)
	GetMasterRecords(ctx context.Context, filter domain.MasterFilter) ([]domain.KPIRecord, int, error)
	GetVendorPerformance(ctx context.Context, filter domain.MasterFilter) ([]domain.VendorPerformance, error)
	GetQualitySummary(ctx context.Context) (domain.QualitySummary, error)
	GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error)
}

type masterRepository struct {
	db *sqlx.DB
}

func NewMasterRepository(db *sqlx.DB) MasterRepository {
	return &masterRepository{db: db}
}

// buildFilter renders the shared WHERE conditions for master_records queries.
func buildFilter(filter domain.MasterFilter) (string, []interface{}) {
	var args []interface{}
	var conditions []string
	argCounter := 1

	if len(filter.ProductIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("product_id = ANY($%d::bigint[])", argCounter))
		args = append(args, pq.Array(filter.ProductIDs))
		argCounter++
	}

	if len(filter.StoreIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("store_id = ANY($%d::bigint[])", argCounter))
		args = append(args, pq.Array(filter.StoreIDs))
		argCounter++
	}

	if len(filter.Segments) > 0 {
		conditions = append(conditions, fmt.Sprintf("abc_xyz_segment = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(filter.Segments))
		argCounter++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("product_category = $%d", argCounter))
		args = append(args, filter.Category)
		argCounter++
	}

	if filter.Region != "" {
		conditions = append(conditions, fmt.Sprintf("store_region = $%d", argCounter))
		args = append(args, filter.Region)
		argCounter++
	}

	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("sale_date >= $%d::date", argCounter))
		args = append(args, filter.DateFrom)
		argCounter++
	}

	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("sale_date <= $%d::date", argCounter))
		args = append(args, filter.DateTo)
		argCounter++
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " AND " + strings.Join(conditions, " AND "), args
}

func (r *masterRepository) GetSegmentSummaries(ctx context.Context, filter domain.MasterFilter) ([]domain.SegmentSummary, error) {
	query := `
        SELECT
            abc_xyz_segment,
            COUNT(DISTINCT product_id) as products,
            COUNT(*) as transactions,
            COALESCE(SUM(revenue), 0) as revenue,
            COALESCE(SUM(gross_profit), 0) as gross_profit
        FROM master_records
        WHERE 1=1
    `

	whereClause, args := buildFilter(filter)
	query += whereClause
	query += " GROUP BY abc_xyz_segment ORDER BY abc_xyz_segment"

	var summaries []domain.SegmentSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("error getting segment summaries: %w", err)
	}

	return summaries, nil
}

func (r *masterRepository) GetMasterRecords(ctx context.Context, filter domain.MasterFilter) ([]domain.KPIRecord, int, error) {
	countQuery := `
        SELECT COUNT(*)
        FROM master_records
        WHERE 1=1
    `

	query := `
        SELECT
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
            abc_class, xyz_class, abc_xyz_segment
        FROM master_records
        WHERE 1=1
    `

	whereClause, args := buildFilter(filter)
	query += whereClause
	countQuery += whereClause

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting master records: %w", err)
	}

	query += " ORDER BY sale_date, sale_id"

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, offset)
	}

	var records []domain.KPIRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error getting master records: %w", err)
	}

	return records, total, nil
}

func (r *masterRepository) GetVendorPerformance(ctx context.Context, filter domain.MasterFilter) ([]domain.VendorPerformance, error) {
	query := `
        SELECT
            vendor_id,
            COALESCE(MAX(vendor_name), '') as vendor_name,
            COALESCE(MAX(vendor_lead_time_days), 0) as lead_time_days,
            COUNT(DISTINCT product_id) as products,
            COALESCE(SUM(revenue), 0) as revenue,
            COALESCE(SUM(cogs), 0) as cogs
        FROM master_records
        WHERE vendor_id IS NOT NULL
    `

	whereClause, args := buildFilter(filter)
	query += whereClause
	query += " GROUP BY vendor_id ORDER BY revenue DESC"

	var vendors []domain.VendorPerformance
	if err := r.db.SelectContext(ctx, &vendors, query, args...); err != nil {
		return nil, fmt.Errorf("error getting vendor performance: %w", err)
	}

	return vendors, nil
}

func (r *masterRepository) GetQualitySummary(ctx context.Context) (domain.QualitySummary, error) {
	query := `
        SELECT
            COUNT(*) as total_records,
            COUNT(*) FILTER (WHERE cogs IS NULL) as null_cost_records,
            COUNT(*) FILTER (WHERE margin_percent < 0) as negative_margins,
            COUNT(*) FILTER (WHERE margin_percent = 100) as full_margin_records,
            COALESCE(SUM(stockout_risk_flag), 0) as stockout_flags,
            COALESCE(SUM(overstock_risk_flag), 0) as overstock_flags,
            COALESCE(AVG(margin_percent) FILTER (WHERE cogs IS NOT NULL), 0) as mean_margin_percent,
            COALESCE(PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY margin_percent) FILTER (WHERE cogs IS NOT NULL), 0) as median_margin_percent
        FROM master_records
    `

	var summary domain.QualitySummary
	row := r.db.QueryRowxContext(ctx, query)
	err := row.Scan(
		&summary.TotalRecords, &summary.NullCostRecords,
		&summary.NegativeMargins, &summary.FullMarginRecords,
		&summary.StockoutFlags, &summary.OverstockFlags,
		&summary.MeanMarginPct, &summary.MedianMarginPct,
	)
	if err != nil {
		return summary, fmt.Errorf("error getting quality summary: %w", err)
	}

	return summary, nil
}

func (r *masterRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT sale_date
		FROM master_records
		ORDER BY sale_date DESC
		LIMIT $1
	`

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, fmt.Errorf("error getting available dates: %w", err)
	}

	return dates, nil
}
