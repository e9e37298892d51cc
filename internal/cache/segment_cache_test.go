package cache

import (
	"context"
	"testing"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

func TestMasterFilterHash_OrderIndependent(t *testing.T) {
	a := domain.MasterFilter{
		StoreIDs: []int64{3, 1, 2},
		Segments: []string{"ax", "CZ"},
		Category: "Wine",
	}
	b := domain.MasterFilter{
		StoreIDs: []int64{1, 2, 3},
		Segments: []string{"CZ", "AX"},
		Category: "Wine",
	}

	if masterFilterHash(a) != masterFilterHash(b) {
		t.Error("logically equal filters must hash identically")
	}
}

func TestMasterFilterHash_DistinguishesFilters(t *testing.T) {
	a := domain.MasterFilter{Segments: []string{"AX"}}
	b := domain.MasterFilter{Segments: []string{"AY"}}

	if masterFilterHash(a) == masterFilterHash(b) {
		t.Error("different filters must not collide on the fast path")
	}
}

func TestMasterFilterHash_EmptyFilter(t *testing.T) {
	if got := masterFilterHash(domain.MasterFilter{}); got != "default" {
		t.Errorf("empty filter hash = %q, want default", got)
	}
}

func TestNoopSegmentCache(t *testing.T) {
	c := NewNoopSegmentCache()
	ctx := context.Background()

	if err := c.SetSummaries(ctx, domain.MasterFilter{}, []domain.SegmentSummary{{Segment: "AX"}}); err != nil {
		t.Fatalf("SetSummaries: %v", err)
	}
	_, hit, err := c.GetSummaries(ctx, domain.MasterFilter{})
	if err != nil {
		t.Fatalf("GetSummaries: %v", err)
	}
	if hit {
		t.Error("noop cache must never report a hit")
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
}
