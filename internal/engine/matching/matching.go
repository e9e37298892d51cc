// Package matching implements the temporal inventory matcher: an as-of join
// that pairs every sale with the most recent inventory snapshot recorded on
// or before the sale date for the same product and store. Snapshots arrive
// on an irregular cadence, so this is a non-equality join, not a key lookup.
package matching

import (
	"database/sql"
	"sort"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

// locationKey identifies one product at one store.
type locationKey struct {
	ProductID int64
	StoreID   int64
}

// Matcher indexes inventory snapshots for as-of lookups. Build once per run,
// then match any number of sales against it.
type Matcher struct {
	index map[locationKey][]domain.InventorySnapshot
}

// NewMatcher groups snapshots by (product, store) and sorts each group so
// lookups can binary-search by date. A naive per-sale scan would be
// O(sales × snapshots); snapshot volumes run to hundreds of thousands of
// rows, so the index is mandatory, not an optimization.
func NewMatcher(snapshots []domain.InventorySnapshot) *Matcher {
	index := make(map[locationKey][]domain.InventorySnapshot)
	for _, snap := range snapshots {
		key := locationKey{ProductID: snap.ProductID, StoreID: snap.StoreID}
		index[key] = append(index[key], snap)
	}

	for key := range index {
		group := index[key]
		// Within a date, Beginning sorts before Ending so that the last
		// snapshot at or before the sale date is the Ending one. Equal
		// (date, type) pairs fall back to on-hand quantity to keep the
		// ordering total and reruns byte-identical.
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].SnapshotDate.Equal(group[j].SnapshotDate) {
				return group[i].SnapshotDate.Before(group[j].SnapshotDate)
			}
			if group[i].Type != group[j].Type {
				return group[i].Type == domain.SnapshotBeginning
			}
			return group[i].OnHandQuantity < group[j].OnHandQuantity
		})
	}

	return &Matcher{index: index}
}

// Match returns the as-of snapshot fields for a single sale. Every sale
// yields exactly one result; when no snapshot dated on or before the sale
// exists for its product and store, all fields are NULL.
func (m *Matcher) Match(sale domain.SaleRecord) domain.SnapshotMatch {
	group := m.index[locationKey{ProductID: sale.ProductID, StoreID: sale.StoreID}]
	if len(group) == 0 {
		return domain.SnapshotMatch{}
	}

	// First index whose snapshot date is strictly after the sale date.
	idx := sort.Search(len(group), func(i int) bool {
		return group[i].SnapshotDate.After(sale.SaleDate)
	})
	if idx == 0 {
		// Even the earliest snapshot postdates the sale.
		return domain.SnapshotMatch{}
	}

	snap := group[idx-1]
	return domain.SnapshotMatch{
		SnapshotDate:   sql.NullTime{Time: snap.SnapshotDate, Valid: true},
		SnapshotType:   sql.NullString{String: string(snap.Type), Valid: true},
		OnHandQuantity: sql.NullFloat64{Float64: snap.OnHandQuantity, Valid: true},
		InventoryValue: sql.NullFloat64{Float64: snap.InventoryValue, Valid: true},
	}
}

// MatchAll returns one SnapshotMatch per sale, aligned by index with the
// input slice. The matcher never drops or duplicates a sale.
func (m *Matcher) MatchAll(sales []domain.SaleRecord) []domain.SnapshotMatch {
	matches := make([]domain.SnapshotMatch, len(sales))
	for i, sale := range sales {
		matches[i] = m.Match(sale)
	}
	return matches
}
