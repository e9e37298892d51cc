package dataset

import (
	"github.com/arifi89/inventory-optimization/internal/domain"
	"github.com/arifi89/inventory-optimization/pkg/logger"
)

// Validate runs referential checks over the loaded tables: duplicate primary
// keys where a table has one, and foreign keys pointing at missing dimension
// rows. Findings are reported as counts only; no row is dropped or repaired,
// since downstream joins already degrade to NULL for unmatched references.
func Validate(tables *Tables) domain.ValidationReport {
	report := domain.ValidationReport{
		Checks: []domain.TableCheck{
			checkPurchases(tables),
			checkSales(tables),
			checkSnapshots(tables),
			checkDimension("products", len(tables.Dimensions.Products)),
			checkDimension("stores", len(tables.Dimensions.Stores)),
			checkDimension("vendors", len(tables.Dimensions.Vendors)),
		},
	}

	for _, check := range report.Checks {
		if check.DuplicateKeys == 0 && check.OrphanedRows == 0 {
			continue
		}
		logger.Log.Warn().
			Str("table", check.Table).
			Int("rows", check.Rows).
			Int("duplicate_keys", check.DuplicateKeys).
			Int("orphaned_rows", check.OrphanedRows).
			Msg("Referential check found issues")
	}

	return report
}

// checkPurchases counts purchase lines whose product or vendor reference is
// missing from the dimension lookups. Purchase lines have no primary key of
// their own, so only orphan checks apply.
func checkPurchases(tables *Tables) domain.TableCheck {
	check := domain.TableCheck{Table: "purchases", Rows: len(tables.Purchases)}
	for _, line := range tables.Purchases {
		if orphanedProduct(tables, line.ProductID) || orphanedVendor(tables, line.VendorID) {
			check.OrphanedRows++
		}
	}
	return check
}

func checkSales(tables *Tables) domain.TableCheck {
	check := domain.TableCheck{Table: "sales", Rows: len(tables.Sales)}

	seen := make(map[string]struct{}, len(tables.Sales))
	for _, sale := range tables.Sales {
		if _, dup := seen[sale.SaleID]; dup {
			check.DuplicateKeys++
		}
		seen[sale.SaleID] = struct{}{}

		if orphanedProduct(tables, sale.ProductID) || orphanedStore(tables, sale.StoreID) {
			check.OrphanedRows++
		}
	}
	return check
}

func checkSnapshots(tables *Tables) domain.TableCheck {
	type snapshotKey struct {
		productID int64
		storeID   int64
		date      string
		kind      domain.SnapshotType
	}

	check := domain.TableCheck{Table: "inventory_snapshots", Rows: len(tables.Snapshots)}

	seen := make(map[snapshotKey]struct{}, len(tables.Snapshots))
	for _, snap := range tables.Snapshots {
		key := snapshotKey{
			productID: snap.ProductID,
			storeID:   snap.StoreID,
			date:      snap.SnapshotDate.Format(dateLayout),
			kind:      snap.Type,
		}
		if _, dup := seen[key]; dup {
			check.DuplicateKeys++
		}
		seen[key] = struct{}{}

		if orphanedProduct(tables, snap.ProductID) || orphanedStore(tables, snap.StoreID) {
			check.OrphanedRows++
		}
	}
	return check
}

func checkDimension(name string, rows int) domain.TableCheck {
	// Dimension maps are keyed by ID at load time, so duplicates cannot
	// survive into them; only the row count is worth reporting.
	return domain.TableCheck{Table: name, Rows: rows}
}

// An empty dimension lookup means the file was absent entirely; calling
// every fact row orphaned in that case would drown the real signal.
func orphanedProduct(tables *Tables, id int64) bool {
	if len(tables.Dimensions.Products) == 0 {
		return false
	}
	_, ok := tables.Dimensions.Products[id]
	return !ok
}

func orphanedStore(tables *Tables, id int64) bool {
	if len(tables.Dimensions.Stores) == 0 {
		return false
	}
	_, ok := tables.Dimensions.Stores[id]
	return !ok
}

func orphanedVendor(tables *Tables, id int64) bool {
	if len(tables.Dimensions.Vendors) == 0 {
		return false
	}
	_, ok := tables.Dimensions.Vendors[id]
	return !ok
}
