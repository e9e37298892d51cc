package assembly

import (
	"database/sql"
	"testing"
	"time"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

func testDims() domain.Dimensions {
	return domain.Dimensions{
		Products: map[int64]domain.Product{
			5000: {ProductID: 5000, Description: "Single Malt 12yr", Size: "750mL", Category: "Whisky"},
		},
		Stores: map[int64]domain.Store{
			10: {StoreID: 10, City: "Des Moines", State: "IA", Region: "Midwest"},
		},
		Vendors: map[int64]domain.Vendor{
			7: {VendorID: 7, Name: "Highland Imports", LeadTimeDays: 14},
		},
	}
}

func testWAC() map[int64]domain.WACRecord {
	return map[int64]domain.WACRecord{
		5000: {
			ProductID:       5000,
			WAC:             sql.NullFloat64{Float64: 9.9167, Valid: true},
			FreightPerUnit:  sql.NullFloat64{Float64: 0.2, Valid: true},
			TotalQuantity:   300,
			PrimaryVendorID: sql.NullInt64{Int64: 7, Valid: true},
		},
	}
}

func testSale(pid, sid int64) domain.SaleRecord {
	return domain.SaleRecord{
		SaleID:       "INV-1",
		ProductID:    pid,
		StoreID:      sid,
		SaleDate:     time.Date(2016, 2, 15, 0, 0, 0, 0, time.UTC),
		QuantitySold: 20,
		UnitPrice:    15,
		Tax:          3,
	}
}

func TestAssemble_FullyMatchedSale(t *testing.T) {
	a := NewAssembler(testWAC(), testDims())

	match := domain.SnapshotMatch{
		SnapshotDate:   sql.NullTime{Time: time.Date(2016, 2, 10, 0, 0, 0, 0, time.UTC), Valid: true},
		SnapshotType:   sql.NullString{String: "Ending", Valid: true},
		OnHandQuantity: sql.NullFloat64{Float64: 140, Valid: true},
		InventoryValue: sql.NullFloat64{Float64: 1400, Valid: true},
	}

	records, report, err := a.Assemble([]domain.SaleRecord{testSale(5000, 10)}, []domain.SnapshotMatch{match})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if !rec.WAC.Valid || rec.WAC.Float64 != 9.9167 {
		t.Errorf("WAC = %+v", rec.WAC)
	}
	if !rec.LandedCost.Valid || rec.LandedCost.Float64 != 9.9167+0.2 {
		t.Errorf("LandedCost = %+v", rec.LandedCost)
	}
	if !rec.VendorName.Valid || rec.VendorName.String != "Highland Imports" {
		t.Errorf("VendorName = %+v", rec.VendorName)
	}
	if !rec.VendorLeadTimeDays.Valid || rec.VendorLeadTimeDays.Float64 != 14 {
		t.Errorf("VendorLeadTimeDays = %+v", rec.VendorLeadTimeDays)
	}
	if !rec.ProductCategory.Valid || rec.ProductCategory.String != "Whisky" {
		t.Errorf("ProductCategory = %+v", rec.ProductCategory)
	}
	if !rec.StoreRegion.Valid || rec.StoreRegion.String != "Midwest" {
		t.Errorf("StoreRegion = %+v", rec.StoreRegion)
	}
	if rec.SaleYear != 2016 || rec.SaleQuarter != 1 || rec.SaleMonth != 2 {
		t.Errorf("time dims = %d/%d/%d", rec.SaleYear, rec.SaleQuarter, rec.SaleMonth)
	}

	if report.WACMatched != 1 || report.InventoryMatched != 1 || report.VendorMatched != 1 {
		t.Errorf("coverage report = %+v", report)
	}
}

func TestAssemble_NewYearTimeDims(t *testing.T) {
	a := NewAssembler(testWAC(), testDims())

	sale := testSale(5000, 10)
	// 2021-01-01 is a Friday in ISO week 53 of 2020.
	sale.SaleDate = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	records, _, err := a.Assemble([]domain.SaleRecord{sale}, make([]domain.SnapshotMatch, 1))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	rec := records[0]

	if rec.SaleYear != 2021 || rec.SaleQuarter != 1 || rec.SaleMonth != 1 {
		t.Errorf("calendar dims = %d/%d/%d, want 2021/1/1", rec.SaleYear, rec.SaleQuarter, rec.SaleMonth)
	}
	if rec.SaleWeek != 53 {
		t.Errorf("SaleWeek = %d, want ISO week 53", rec.SaleWeek)
	}
	if rec.SaleWeekday != int(time.Friday) {
		t.Errorf("SaleWeekday = %d, want %d", rec.SaleWeekday, int(time.Friday))
	}
}

func TestAssemble_UnmatchedSaleIsPreserved(t *testing.T) {
	a := NewAssembler(testWAC(), testDims())

	// Product 9999 has no WAC record, no product dim; store 99 unknown.
	records, report, err := a.Assemble(
		[]domain.SaleRecord{testSale(9999, 99)},
		[]domain.SnapshotMatch{{}},
	)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatal("unmatched sale must still yield one record")
	}

	rec := records[0]
	if rec.WAC.Valid || rec.FreightPerUnit.Valid || rec.LandedCost.Valid {
		t.Errorf("cost fields must be NULL, not zero: %+v", rec.WAC)
	}
	if rec.OnHandQuantity.Valid || rec.SnapshotDate.Valid {
		t.Error("snapshot fields must be NULL")
	}
	if rec.ProductDescription.Valid || rec.StoreCity.Valid || rec.VendorName.Valid {
		t.Error("dimension fields must be NULL")
	}

	if report.WACMatched != 0 || report.InventoryMatched != 0 {
		t.Errorf("coverage report = %+v", report)
	}
	if report.WACCoveragePct() != 0 {
		t.Errorf("WAC coverage = %v, want 0", report.WACCoveragePct())
	}
}

func TestAssemble_NullWACRecordKeepsCostNull(t *testing.T) {
	// A WAC record exists but is NULL (zero purchased quantity): the join
	// must not fabricate a zero cost.
	wac := map[int64]domain.WACRecord{
		5000: {ProductID: 5000},
	}
	a := NewAssembler(wac, testDims())

	records, report, err := a.Assemble([]domain.SaleRecord{testSale(5000, 10)}, []domain.SnapshotMatch{{}})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if records[0].WAC.Valid || records[0].LandedCost.Valid {
		t.Errorf("NULL WAC record must stay NULL: %+v", records[0].WAC)
	}
	if report.WACMatched != 0 {
		t.Errorf("NULL WAC must not count as coverage: %+v", report)
	}
}

func TestAssemble_MisalignedInputs(t *testing.T) {
	a := NewAssembler(testWAC(), testDims())
	if _, _, err := a.Assemble([]domain.SaleRecord{testSale(5000, 10)}, nil); err == nil {
		t.Error("expected error for mismatched sales/matches lengths")
	}
}
