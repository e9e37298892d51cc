package dataset

import (
	"testing"
	"time"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

func testDims() domain.Dimensions {
	return domain.Dimensions{
		Products: map[int64]domain.Product{1: {ProductID: 1}},
		Stores:   map[int64]domain.Store{10: {StoreID: 10}},
		Vendors:  map[int64]domain.Vendor{100: {VendorID: 100}},
	}
}

func findCheck(t *testing.T, report domain.ValidationReport, table string) domain.TableCheck {
	t.Helper()
	for _, check := range report.Checks {
		if check.Table == table {
			return check
		}
	}
	t.Fatalf("no check for table %q", table)
	return domain.TableCheck{}
}

func TestValidate_DuplicateSaleIDs(t *testing.T) {
	tables := &Tables{
		Sales: []domain.SaleRecord{
			{SaleID: "S1", ProductID: 1, StoreID: 10},
			{SaleID: "S1", ProductID: 1, StoreID: 10},
			{SaleID: "S2", ProductID: 1, StoreID: 10},
		},
		Dimensions: testDims(),
	}

	check := findCheck(t, Validate(tables), "sales")

	if check.DuplicateKeys != 1 {
		t.Errorf("DuplicateKeys = %d, want 1", check.DuplicateKeys)
	}
	if check.OrphanedRows != 0 {
		t.Errorf("OrphanedRows = %d, want 0", check.OrphanedRows)
	}
}

func TestValidate_OrphanedForeignKeys(t *testing.T) {
	tables := &Tables{
		Purchases: []domain.PurchaseLine{
			{ProductID: 1, VendorID: 100},
			{ProductID: 99, VendorID: 100}, // unknown product
			{ProductID: 1, VendorID: 999},  // unknown vendor
		},
		Sales: []domain.SaleRecord{
			{SaleID: "S1", ProductID: 1, StoreID: 77}, // unknown store
		},
		Dimensions: testDims(),
	}

	report := Validate(tables)

	if got := findCheck(t, report, "purchases").OrphanedRows; got != 2 {
		t.Errorf("purchase orphans = %d, want 2", got)
	}
	if got := findCheck(t, report, "sales").OrphanedRows; got != 1 {
		t.Errorf("sale orphans = %d, want 1", got)
	}
}

func TestValidate_DuplicateSnapshots(t *testing.T) {
	day := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	tables := &Tables{
		Snapshots: []domain.InventorySnapshot{
			{ProductID: 1, StoreID: 10, SnapshotDate: day, Type: domain.SnapshotBeginning},
			{ProductID: 1, StoreID: 10, SnapshotDate: day, Type: domain.SnapshotBeginning},
			// Same date but different type is a legitimate pair, not a dup.
			{ProductID: 1, StoreID: 10, SnapshotDate: day, Type: domain.SnapshotEnding},
		},
		Dimensions: testDims(),
	}

	check := findCheck(t, Validate(tables), "inventory_snapshots")

	if check.DuplicateKeys != 1 {
		t.Errorf("DuplicateKeys = %d, want 1", check.DuplicateKeys)
	}
}

func TestValidate_EmptyDimensionSkipsOrphanCheck(t *testing.T) {
	tables := &Tables{
		Sales: []domain.SaleRecord{
			{SaleID: "S1", ProductID: 42, StoreID: 42},
		},
		Dimensions: domain.Dimensions{
			Products: map[int64]domain.Product{},
			Stores:   map[int64]domain.Store{},
			Vendors:  map[int64]domain.Vendor{},
		},
	}

	check := findCheck(t, Validate(tables), "sales")

	if check.OrphanedRows != 0 {
		t.Errorf("OrphanedRows = %d, want 0 when lookups are absent", check.OrphanedRows)
	}
}
