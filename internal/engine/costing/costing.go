// Package costing implements the cost allocation engine: one weighted
// average cost and per-unit freight figure per product, computed over the
// product's entire purchase history. There is no direct purchase-to-sale
// linkage in retail data, so a single WAC per product is the costing basis
// for every sale of that product.
package costing

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

// Engine aggregates purchase lines into per-product WAC records.
type Engine struct {
	workers int
}

// NewEngine creates a cost allocation engine. workers caps the number of
// goroutines used for per-product aggregation; values below 1 mean serial.
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{workers: workers}
}

// productAccumulator collects the running sums for one product.
type productAccumulator struct {
	lines []domain.PurchaseLine
}

// Allocate computes one WACRecord per product present in purchases.
//
//	wac            = Σ(quantity × unit_cost) / Σ(quantity)
//	freight_per_unit = Σ(freight_cost) / Σ(quantity)
//
// Both are NULL when Σ(quantity) = 0. Products are independent, so the
// per-product work is fanned out over a bounded worker pool; results are
// returned keyed by product so downstream order never depends on
// goroutine scheduling.
func (e *Engine) Allocate(ctx context.Context, purchases []domain.PurchaseLine) (map[int64]domain.WACRecord, error) {
	byProduct := make(map[int64]*productAccumulator)
	for _, line := range purchases {
		acc, ok := byProduct[line.ProductID]
		if !ok {
			acc = &productAccumulator{}
			byProduct[line.ProductID] = acc
		}
		acc.lines = append(acc.lines, line)
	}

	productIDs := make([]int64, 0, len(byProduct))
	for id := range byProduct {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	out := make([]domain.WACRecord, len(productIDs))

	idChan := make(chan int, len(productIDs))
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idChan {
				out[i] = aggregateProduct(productIDs[i], byProduct[productIDs[i]].lines)
			}
		}()
	}

	for i := range productIDs {
		if err := ctx.Err(); err != nil {
			close(idChan)
			wg.Wait()
			return nil, err
		}
		// idChan is buffered to the full product count; sends never block.
		idChan <- i
	}
	close(idChan)
	wg.Wait()

	records := make(map[int64]domain.WACRecord, len(out))
	for _, rec := range out {
		records[rec.ProductID] = rec
	}
	return records, nil
}

// aggregateProduct folds all purchase lines of one product into a WACRecord.
func aggregateProduct(productID int64, lines []domain.PurchaseLine) domain.WACRecord {
	var totalQty, totalWeightedCost, totalFreight float64
	vendorQty := make(map[int64]float64)

	for _, line := range lines {
		totalQty += line.Quantity
		totalWeightedCost += line.Quantity * line.UnitCost
		totalFreight += line.FreightCost
		vendorQty[line.VendorID] += line.Quantity
	}

	rec := domain.WACRecord{
		ProductID:     productID,
		TotalQuantity: totalQty,
	}

	// Zero total quantity leaves cost undefined. NULL, never zero or Inf:
	// a zero WAC would credit free goods and distort every margin downstream.
	if totalQty > 0 {
		rec.WAC = sql.NullFloat64{Float64: totalWeightedCost / totalQty, Valid: true}
		rec.FreightPerUnit = sql.NullFloat64{Float64: totalFreight / totalQty, Valid: true}
	}

	if vendor, ok := dominantVendor(vendorQty); ok {
		rec.PrimaryVendorID = sql.NullInt64{Int64: vendor, Valid: true}
	}

	return rec
}

// dominantVendor picks the vendor with the largest purchased quantity.
// Ties resolve to the lowest vendor ID so reruns stay reproducible.
func dominantVendor(vendorQty map[int64]float64) (int64, bool) {
	var (
		best    int64
		bestQty float64
		found   bool
	)
	ids := make([]int64, 0, len(vendorQty))
	for id := range vendorQty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if !found || vendorQty[id] > bestQty {
			best = id
			bestQty = vendorQty[id]
			found = true
		}
	}
	return best, found
}
