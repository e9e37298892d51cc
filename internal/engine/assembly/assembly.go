// Package assembly builds the denormalized master dataset: exactly one
// record per sale, enriched with allocated cost, the as-of inventory match,
// and dimension attributes. Every join preserves the sales side; unmatched
// reference data degrades to NULL fields and a coverage counter.
package assembly

import (
	"database/sql"
	"fmt"

	"github.com/arifi89/inventory-optimization/internal/domain"
	"github.com/rs/zerolog/log"
)

// Assembler merges the upstream engine outputs into master records.
type Assembler struct {
	wac  map[int64]domain.WACRecord
	dims domain.Dimensions
}

// NewAssembler creates an assembler over the costing output and the static
// dimension tables.
func NewAssembler(wac map[int64]domain.WACRecord, dims domain.Dimensions) *Assembler {
	return &Assembler{wac: wac, dims: dims}
}

// Assemble produces one MasterRecord per sale. matches must be the
// temporal matcher output aligned 1:1 with sales; the two slices come from
// the same input so a length mismatch means a programming error upstream.
func (a *Assembler) Assemble(sales []domain.SaleRecord, matches []domain.SnapshotMatch) ([]domain.MasterRecord, domain.CoverageReport, error) {
	if len(sales) != len(matches) {
		return nil, domain.CoverageReport{}, fmt.Errorf("assembly: %d sales but %d snapshot matches", len(sales), len(matches))
	}

	records := make([]domain.MasterRecord, len(sales))
	report := domain.CoverageReport{TotalSales: len(sales)}

	for i, sale := range sales {
		rec := domain.MasterRecord{SaleRecord: sale}

		if wac, ok := a.wac[sale.ProductID]; ok && wac.WAC.Valid {
			rec.WAC = wac.WAC
			rec.FreightPerUnit = wac.FreightPerUnit
			rec.LandedCost = sql.NullFloat64{
				Float64: wac.WAC.Float64 + wac.FreightPerUnit.Float64,
				Valid:   true,
			}
			report.WACMatched++

			if wac.PrimaryVendorID.Valid {
				rec.VendorID = wac.PrimaryVendorID
				if vendor, ok := a.dims.Vendors[wac.PrimaryVendorID.Int64]; ok {
					rec.VendorName = sql.NullString{String: vendor.Name, Valid: true}
					rec.VendorLeadTimeDays = sql.NullFloat64{Float64: vendor.LeadTimeDays, Valid: true}
					report.VendorMatched++
				}
			}
		}

		match := matches[i]
		rec.SnapshotDate = match.SnapshotDate
		rec.SnapshotType = match.SnapshotType
		rec.OnHandQuantity = match.OnHandQuantity
		rec.InventoryValue = match.InventoryValue
		if match.OnHandQuantity.Valid {
			report.InventoryMatched++
		}

		if product, ok := a.dims.Products[sale.ProductID]; ok {
			rec.ProductDescription = sql.NullString{String: product.Description, Valid: true}
			rec.ProductSize = sql.NullString{String: product.Size, Valid: true}
			rec.ProductCategory = sql.NullString{String: product.Category, Valid: true}
			report.ProductMatched++
		}

		if store, ok := a.dims.Stores[sale.StoreID]; ok {
			rec.StoreCity = sql.NullString{String: store.City, Valid: true}
			rec.StoreState = sql.NullString{String: store.State, Valid: true}
			rec.StoreRegion = sql.NullString{String: store.Region, Valid: true}
			report.StoreMatched++
		}

		// SaleWeek is the ISO-8601 week while SaleYear stays the calendar
		// year so quarter and month line up with it. Around new year the
		// pair can read as week 52/53 of the following calendar year.
		_, week := sale.SaleDate.ISOWeek()
		rec.SaleYear = sale.SaleDate.Year()
		rec.SaleQuarter = (int(sale.SaleDate.Month())-1)/3 + 1
		rec.SaleMonth = int(sale.SaleDate.Month())
		rec.SaleWeek = week
		rec.SaleWeekday = int(sale.SaleDate.Weekday())

		records[i] = rec
	}

	return records, report, nil
}

// LogCoverage emits the match rates and warns when WAC or inventory
// coverage drops below threshold (a data-quality signal, not a failure).
func LogCoverage(report domain.CoverageReport, threshold float64) {
	log.Info().
		Int("total_sales", report.TotalSales).
		Float64("wac_pct", report.WACCoveragePct()).
		Float64("inventory_pct", report.InventoryCoveragePct()).
		Int("product_matched", report.ProductMatched).
		Int("store_matched", report.StoreMatched).
		Int("vendor_matched", report.VendorMatched).
		Msg("master dataset coverage")

	if report.TotalSales == 0 {
		return
	}
	if report.WACCoveragePct() < threshold {
		log.Warn().
			Float64("coverage_pct", report.WACCoveragePct()).
			Float64("threshold_pct", threshold).
			Msg("WAC coverage below threshold")
	}
	if report.InventoryCoveragePct() < threshold {
		log.Warn().
			Float64("coverage_pct", report.InventoryCoveragePct()).
			Float64("threshold_pct", threshold).
			Msg("inventory coverage below threshold")
	}
}
