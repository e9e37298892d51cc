package matching

import (
	"testing"
	"time"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2016, 1, d, 0, 0, 0, 0, time.UTC)
}

func snapshot(pid, sid int64, date time.Time, onHand float64, typ domain.SnapshotType) domain.InventorySnapshot {
	return domain.InventorySnapshot{
		ProductID:      pid,
		StoreID:        sid,
		SnapshotDate:   date,
		OnHandQuantity: onHand,
		InventoryValue: onHand * 10,
		Type:           typ,
	}
}

func sale(pid, sid int64, date time.Time) domain.SaleRecord {
	return domain.SaleRecord{
		SaleID:    "S1",
		ProductID: pid,
		StoreID:   sid,
		SaleDate:  date,
	}
}

func TestMatch_NearestPriorSnapshot(t *testing.T) {
	m := NewMatcher([]domain.InventorySnapshot{
		snapshot(5000, 10, day(1), 150, domain.SnapshotEnding),
		snapshot(5000, 10, day(10), 140, domain.SnapshotEnding),
		snapshot(5000, 10, day(20), 120, domain.SnapshotEnding),
	})

	got := m.Match(sale(5000, 10, day(15)))
	if !got.OnHandQuantity.Valid {
		t.Fatal("expected a match")
	}
	if got.OnHandQuantity.Float64 != 140 {
		t.Errorf("on hand = %v, want 140 (snapshot of Jan 10)", got.OnHandQuantity.Float64)
	}
	if !got.SnapshotDate.Time.Equal(day(10)) {
		t.Errorf("snapshot date = %v, want %v", got.SnapshotDate.Time, day(10))
	}
}

func TestMatch_SameDayCounts(t *testing.T) {
	m := NewMatcher([]domain.InventorySnapshot{
		snapshot(1, 1, day(10), 80, domain.SnapshotEnding),
	})

	got := m.Match(sale(1, 1, day(10)))
	if !got.OnHandQuantity.Valid || got.OnHandQuantity.Float64 != 80 {
		t.Errorf("snapshot dated on the sale date must match, got %+v", got)
	}
}

func TestMatch_NoPriorSnapshotIsNull(t *testing.T) {
	m := NewMatcher([]domain.InventorySnapshot{
		snapshot(1, 1, day(20), 80, domain.SnapshotEnding),
	})

	got := m.Match(sale(1, 1, day(5)))
	if got.OnHandQuantity.Valid || got.InventoryValue.Valid || got.SnapshotDate.Valid || got.SnapshotType.Valid {
		t.Errorf("all fields must be NULL with no prior snapshot, got %+v", got)
	}
}

func TestMatch_DifferentStoreDoesNotMatch(t *testing.T) {
	m := NewMatcher([]domain.InventorySnapshot{
		snapshot(1, 2, day(1), 80, domain.SnapshotEnding),
	})

	got := m.Match(sale(1, 1, day(5)))
	if got.OnHandQuantity.Valid {
		t.Error("snapshot for another store must not match")
	}
}

func TestMatch_SameDateTiePrefersEnding(t *testing.T) {
	// Regardless of input order, the Ending snapshot wins a same-date tie.
	for name, snaps := range map[string][]domain.InventorySnapshot{
		"beginning first": {
			snapshot(1, 1, day(10), 100, domain.SnapshotBeginning),
			snapshot(1, 1, day(10), 70, domain.SnapshotEnding),
		},
		"ending first": {
			snapshot(1, 1, day(10), 70, domain.SnapshotEnding),
			snapshot(1, 1, day(10), 100, domain.SnapshotBeginning),
		},
	} {
		m := NewMatcher(snaps)
		got := m.Match(sale(1, 1, day(12)))
		if !got.SnapshotType.Valid || got.SnapshotType.String != string(domain.SnapshotEnding) {
			t.Errorf("%s: snapshot type = %+v, want Ending", name, got.SnapshotType)
		}
		if got.OnHandQuantity.Float64 != 70 {
			t.Errorf("%s: on hand = %v, want 70", name, got.OnHandQuantity.Float64)
		}
	}
}

func TestMatchAll_OneOutputPerSale(t *testing.T) {
	m := NewMatcher([]domain.InventorySnapshot{
		snapshot(1, 1, day(1), 10, domain.SnapshotEnding),
	})

	sales := []domain.SaleRecord{
		sale(1, 1, day(2)),
		sale(2, 1, day(2)), // no snapshots at all
		sale(1, 1, day(3)),
	}

	matches := m.MatchAll(sales)
	if len(matches) != len(sales) {
		t.Fatalf("got %d matches for %d sales", len(matches), len(sales))
	}
	if !matches[0].OnHandQuantity.Valid || !matches[2].OnHandQuantity.Valid {
		t.Error("sales with a prior snapshot must match")
	}
	if matches[1].OnHandQuantity.Valid {
		t.Error("sale for an unseen product must be NULL, not dropped")
	}
}

// Maximality: no snapshot for the same (product, store) may fall strictly
// between the matched date and the sale date.
func TestMatch_Maximality(t *testing.T) {
	snaps := []domain.InventorySnapshot{
		snapshot(1, 1, day(2), 1, domain.SnapshotEnding),
		snapshot(1, 1, day(5), 2, domain.SnapshotEnding),
		snapshot(1, 1, day(9), 3, domain.SnapshotBeginning),
		snapshot(1, 1, day(17), 4, domain.SnapshotEnding),
		snapshot(1, 1, day(25), 5, domain.SnapshotEnding),
	}
	m := NewMatcher(snaps)

	for d := 1; d <= 28; d++ {
		saleDate := day(d)
		got := m.Match(sale(1, 1, saleDate))
		if !got.SnapshotDate.Valid {
			if d >= 2 {
				t.Errorf("day %d: expected a match", d)
			}
			continue
		}
		matched := got.SnapshotDate.Time
		if matched.After(saleDate) {
			t.Errorf("day %d: matched date %v after sale date", d, matched)
		}
		for _, s := range snaps {
			if s.SnapshotDate.After(matched) && !s.SnapshotDate.After(saleDate) {
				t.Errorf("day %d: snapshot %v between matched %v and sale date", d, s.SnapshotDate, matched)
			}
		}
	}
}
