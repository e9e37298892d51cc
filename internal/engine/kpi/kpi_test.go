package kpi

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

func master(saleID string, pid int64, date time.Time, qty, price, tax float64) domain.MasterRecord {
	return domain.MasterRecord{
		SaleRecord: domain.SaleRecord{
			SaleID:       saleID,
			ProductID:    pid,
			StoreID:      1,
			SaleDate:     date,
			QuantitySold: qty,
			UnitPrice:    price,
			Tax:          tax,
		},
	}
}

func withCost(m domain.MasterRecord, wac, freight float64) domain.MasterRecord {
	m.WAC = sql.NullFloat64{Float64: wac, Valid: true}
	m.FreightPerUnit = sql.NullFloat64{Float64: freight, Valid: true}
	return m
}

func withOnHand(m domain.MasterRecord, onHand float64) domain.MasterRecord {
	m.OnHandQuantity = sql.NullFloat64{Float64: onHand, Valid: true}
	return m
}

var feb15 = time.Date(2016, 2, 15, 0, 0, 0, 0, time.UTC)

func TestCompute_FinancialKPIs(t *testing.T) {
	// 20 units @ $15, tax $3, WAC 2975/300, prior on-hand 140.
	m := withOnHand(withCost(master("S1", 5000, feb15, 20, 15, 3), 2975.0/300.0, 0), 140)

	records, _ := NewEngine().Compute([]domain.MasterRecord{m})
	rec := records[0]

	if rec.Revenue != 300 {
		t.Errorf("Revenue = %v, want 300", rec.Revenue)
	}
	if !rec.PurchaseCost.Valid || math.Abs(rec.PurchaseCost.Float64-198.333333) > 1e-4 {
		t.Errorf("PurchaseCost = %+v, want ~198.33", rec.PurchaseCost)
	}
	wantMargin := 100 * (300 - 3 - 2975.0/300.0*20) / (300 - 3)
	if math.Abs(rec.MarginPct-wantMargin) > 1e-9 {
		t.Errorf("MarginPct = %v, want %v", rec.MarginPct, wantMargin)
	}
	if math.Abs(rec.MarginPct-33.22) > 0.01 {
		t.Errorf("MarginPct = %v, want ~33.22", rec.MarginPct)
	}
	if rec.StockoutRiskFlag != 0 {
		t.Errorf("StockoutRiskFlag = %d, want 0 (140 >= 20)", rec.StockoutRiskFlag)
	}
	if rec.OverstockRiskFlag != 1 {
		t.Errorf("OverstockRiskFlag = %d, want 1 (140 > 40)", rec.OverstockRiskFlag)
	}
}

func TestCompute_NullCostStaysNull(t *testing.T) {
	m := master("S1", 1, feb15, 5, 10, 0)

	records, summary := NewEngine().Compute([]domain.MasterRecord{m})
	rec := records[0]

	if rec.PurchaseCost.Valid || rec.COGS.Valid {
		t.Errorf("cost fields must be NULL without WAC: %+v", rec.PurchaseCost)
	}
	if rec.GrossProfit != 0 || rec.MarginPct != 0 {
		t.Errorf("profit fields must fall back to 0: gp=%v margin=%v", rec.GrossProfit, rec.MarginPct)
	}
	if summary.NullCostRecords != 1 {
		t.Errorf("NullCostRecords = %d, want 1", summary.NullCostRecords)
	}
}

func TestCompute_FreightWithoutWAC(t *testing.T) {
	// Freight absence is not attributable; freight presence without WAC
	// still computes freight cost but leaves COGS NULL.
	m := master("S1", 1, feb15, 10, 10, 0)
	m.FreightPerUnit = sql.NullFloat64{Float64: 0.5, Valid: true}

	records, _ := NewEngine().Compute([]domain.MasterRecord{m})
	rec := records[0]

	if rec.FreightCost != 5 {
		t.Errorf("FreightCost = %v, want 5", rec.FreightCost)
	}
	if rec.COGS.Valid {
		t.Error("COGS must stay NULL without WAC")
	}
}

func TestCompute_MarginGuards(t *testing.T) {
	cases := []struct {
		name       string
		qty, price float64
		tax        float64
	}{
		{"zero net revenue", 5, 0, 0},
		{"negative net revenue", 1, 1, 5},
	}
	for _, tc := range cases {
		m := withCost(master("S1", 1, feb15, tc.qty, tc.price, tc.tax), 2, 0)
		records, _ := NewEngine().Compute([]domain.MasterRecord{m})
		margin := records[0].MarginPct
		if margin != 0 {
			t.Errorf("%s: MarginPct = %v, want 0", tc.name, margin)
		}
		if math.IsNaN(margin) || math.IsInf(margin, 0) {
			t.Errorf("%s: MarginPct is not finite", tc.name)
		}
	}
}

func TestCompute_InventoryKPIs(t *testing.T) {
	m := withOnHand(withCost(master("S1", 1, feb15, 10, 5, 0), 1, 0), 50)

	records, _ := NewEngine().Compute([]domain.MasterRecord{m})
	rec := records[0]

	if got, want := rec.InventoryTurnover, 10.0/50.0; got != want {
		t.Errorf("InventoryTurnover = %v, want %v", got, want)
	}
	if got, want := rec.DaysOfInventory, 365/(10.0/50.0); got != want {
		t.Errorf("DaysOfInventory = %v, want %v", got, want)
	}
}

func TestCompute_ZeroOnHandTurnover(t *testing.T) {
	m := withOnHand(master("S1", 1, feb15, 10, 5, 0), 0)

	records, _ := NewEngine().Compute([]domain.MasterRecord{m})
	rec := records[0]

	if rec.InventoryTurnover != 0 || rec.DaysOfInventory != 0 {
		t.Errorf("turnover/doi = %v/%v, want 0/0", rec.InventoryTurnover, rec.DaysOfInventory)
	}
	// 0 < 10, so the stockout flag does fire on a zero on-hand.
	if rec.StockoutRiskFlag != 1 {
		t.Errorf("StockoutRiskFlag = %d, want 1", rec.StockoutRiskFlag)
	}
}

func TestCompute_NoSnapshotFlagsStayZero(t *testing.T) {
	m := master("S1", 1, feb15, 10, 5, 0)

	records, _ := NewEngine().Compute([]domain.MasterRecord{m})
	rec := records[0]

	if rec.StockoutRiskFlag != 0 || rec.OverstockRiskFlag != 0 {
		t.Errorf("flags = %d/%d, want 0/0 without on-hand data", rec.StockoutRiskFlag, rec.OverstockRiskFlag)
	}
}

func TestCompute_SegmentJoinedOntoEveryRow(t *testing.T) {
	masters := []domain.MasterRecord{
		withCost(master("S1", 1, feb15, 10, 100, 0), 1, 0),
		withCost(master("S2", 1, feb15.AddDate(0, 0, 1), 12, 100, 0), 1, 0),
		withCost(master("S3", 2, feb15, 1, 1, 0), 1, 0),
	}

	records, _ := NewEngine().Compute(masters)

	if records[0].Segment == "" || len(records[0].Segment) != 2 {
		t.Fatalf("Segment = %q, want two-letter label", records[0].Segment)
	}
	if records[0].Segment != records[1].Segment {
		t.Errorf("same product carries different segments: %q vs %q", records[0].Segment, records[1].Segment)
	}
	if records[0].Segment != records[0].ABCClass+records[0].XYZClass {
		t.Errorf("Segment %q is not ABC+XYZ", records[0].Segment)
	}
}

func TestSummarize_MarginStats(t *testing.T) {
	masters := []domain.MasterRecord{
		withCost(master("S1", 1, feb15, 1, 100, 0), 50, 0),  // margin 50
		withCost(master("S2", 2, feb15, 1, 100, 0), 90, 0),  // margin 10
		withCost(master("S3", 3, feb15, 1, 100, 0), 120, 0), // margin -20
	}

	_, summary := NewEngine().Compute(masters)

	if summary.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d", summary.TotalRecords)
	}
	if summary.NegativeMargins != 1 {
		t.Errorf("NegativeMargins = %d, want 1", summary.NegativeMargins)
	}
	if math.Abs(summary.MeanMarginPct-(50+10-20)/3.0) > 1e-9 {
		t.Errorf("MeanMarginPct = %v", summary.MeanMarginPct)
	}
	if summary.MedianMarginPct != 10 {
		t.Errorf("MedianMarginPct = %v, want 10", summary.MedianMarginPct)
	}
}

func TestSummarize_NullCostExcludedFromMarginStats(t *testing.T) {
	masters := []domain.MasterRecord{
		withCost(master("S1", 1, feb15, 1, 100, 0), 50, 0), // margin 50
		withCost(master("S2", 2, feb15, 1, 100, 0), 90, 0), // margin 10
		master("S3", 3, feb15, 1, 100, 0),                  // no purchase history
	}

	_, summary := NewEngine().Compute(masters)

	if summary.NullCostRecords != 1 {
		t.Fatalf("NullCostRecords = %d, want 1", summary.NullCostRecords)
	}
	// The null-cost row's placeholder zero margin must not drag the stats.
	if math.Abs(summary.MeanMarginPct-30) > 1e-9 {
		t.Errorf("MeanMarginPct = %v, want 30", summary.MeanMarginPct)
	}
	if summary.MedianMarginPct != 30 {
		t.Errorf("MedianMarginPct = %v, want 30", summary.MedianMarginPct)
	}
}

func TestSummarize_AllNullCost(t *testing.T) {
	masters := []domain.MasterRecord{
		master("S1", 1, feb15, 1, 100, 0),
		master("S2", 2, feb15, 1, 100, 0),
	}

	_, summary := NewEngine().Compute(masters)

	if summary.NullCostRecords != 2 {
		t.Errorf("NullCostRecords = %d, want 2", summary.NullCostRecords)
	}
	if summary.MeanMarginPct != 0 || summary.MedianMarginPct != 0 {
		t.Errorf("margin stats = %v/%v, want 0/0 with no costed rows", summary.MeanMarginPct, summary.MedianMarginPct)
	}
}
