package pipeline

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/arifi89/inventory-optimization/internal/domain"
	"github.com/arifi89/inventory-optimization/pkg/logger"
)

// DatasetFileName is the finished master dataset CSV inside OutputDir.
const DatasetFileName = "master_dataset.csv"

const dateLayout = "2006-01-02"

// datasetColumns is the output schema in its fixed order. Consumers rely on
// a stable schema even when optional joins found nothing, and identical
// inputs must produce byte-identical files across reruns.
var datasetColumns = []string{
	"sale_id", "product_id", "store_id", "sale_date",
	"quantity_sold", "unit_price", "tax",
	"wac", "freight_per_unit", "landed_cost",
	"snapshot_date", "snapshot_type", "on_hand_quantity", "inventory_value",
	"product_description", "product_size", "product_category",
	"store_city", "store_state", "store_region",
	"vendor_id", "vendor_name", "vendor_lead_time_days",
	"sale_year", "sale_quarter", "sale_month", "sale_week", "sale_weekday",
	"revenue", "purchase_cost", "freight_cost", "cogs",
	"gross_profit", "margin_percent",
	"inventory_turnover", "days_of_inventory",
	"stockout_risk_flag", "overstock_risk_flag",
	"abc_class", "xyz_class", "abc_xyz_segment",
}

// Writer streams the finished KPI dataset to CSV in flushed batches and
// triggers the seed callback once the file is complete.
type Writer struct {
	config       Config
	mu           sync.Mutex
	seedCallback func(ctx context.Context, csvPath string) error
}

// NewWriter creates a dataset writer. seedCallback may be nil when the run
// should not seed a database.
func NewWriter(config Config, seedCallback func(ctx context.Context, csvPath string) error) *Writer {
	return &Writer{config: config, seedCallback: seedCallback}
}

// WriteDataset writes all records to OutputDir/master_dataset.csv and
// returns the file path. The writer buffer is flushed every FlushRows rows
// so memory stays bounded for large datasets.
func (w *Writer) WriteDataset(ctx context.Context, records []domain.KPIRecord) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	csvPath := filepath.Join(w.config.OutputDir, DatasetFileName)
	file, err := os.Create(csvPath)
	if err != nil {
		return "", fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(datasetColumns); err != nil {
		return "", err
	}

	flushRows := w.config.FlushRows
	if flushRows <= 0 {
		flushRows = DefaultConfig().FlushRows
	}

	for i, rec := range records {
		if err := writer.Write(datasetRecord(rec)); err != nil {
			return "", err
		}
		if (i+1)%flushRows == 0 {
			writer.Flush()
			if err := writer.Error(); err != nil {
				return "", err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	logger.Log.Info().
		Int("rows", len(records)).
		Str("path", csvPath).
		Msg("Wrote master dataset")

	if w.seedCallback != nil {
		if err := w.seedCallback(ctx, csvPath); err != nil {
			return "", fmt.Errorf("seed callback failed: %w", err)
		}
	}

	return csvPath, nil
}

// datasetRecord renders one KPI record in the fixed column order. NULL
// fields render as empty strings, never as zeroes.
func datasetRecord(r domain.KPIRecord) []string {
	return []string{
		r.SaleID,
		strconv.FormatInt(r.ProductID, 10),
		strconv.FormatInt(r.StoreID, 10),
		r.SaleDate.Format(dateLayout),
		formatFloat(r.QuantitySold),
		formatFloat(r.UnitPrice),
		formatFloat(r.Tax),
		nullFloat(r.WAC),
		nullFloat(r.FreightPerUnit),
		nullFloat(r.LandedCost),
		nullDate(r.SnapshotDate),
		nullString(r.SnapshotType),
		nullFloat(r.OnHandQuantity),
		nullFloat(r.InventoryValue),
		nullString(r.ProductDescription),
		nullString(r.ProductSize),
		nullString(r.ProductCategory),
		nullString(r.StoreCity),
		nullString(r.StoreState),
		nullString(r.StoreRegion),
		nullInt(r.VendorID),
		nullString(r.VendorName),
		nullFloat(r.VendorLeadTimeDays),
		strconv.Itoa(r.SaleYear),
		strconv.Itoa(r.SaleQuarter),
		strconv.Itoa(r.SaleMonth),
		strconv.Itoa(r.SaleWeek),
		strconv.Itoa(r.SaleWeekday),
		formatFloat(r.Revenue),
		nullFloat(r.PurchaseCost),
		formatFloat(r.FreightCost),
		nullFloat(r.COGS),
		formatFloat(r.GrossProfit),
		formatFloat(r.MarginPct),
		formatFloat(r.InventoryTurnover),
		formatFloat(r.DaysOfInventory),
		strconv.Itoa(r.StockoutRiskFlag),
		strconv.Itoa(r.OverstockRiskFlag),
		r.ABCClass,
		r.XYZClass,
		r.Segment,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullString(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

func nullDate(v sql.NullTime) string {
	if !v.Valid {
		return ""
	}
	return v.Time.Format(dateLayout)
}
