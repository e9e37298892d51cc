package kpi

import (
	"math"
	"sort"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

// ABC cut points on cumulative revenue share. The 20/50 cumulative cut is
// applied uniformly across the dataset: A while cumulative revenue share
// stays within 20%, B within 50%, C for the long tail.
const (
	abcClassACutoff = 20.0
	abcClassBCutoff = 50.0
)

// cvEpsilon keeps the coefficient of variation finite for near-constant
// demand.
const cvEpsilon = 0.001

// Label is the classification pair for one product.
type Label struct {
	ABC string
	XYZ string
}

// Classify computes dataset-wide ABC and XYZ classes per product. Every
// product present in masters receives exactly one label of each kind, so
// every transaction of a product carries the same segment.
func Classify(masters []domain.MasterRecord) map[int64]Label {
	labels := make(map[int64]Label)
	for productID, abc := range classifyABC(masters) {
		labels[productID] = Label{ABC: abc}
	}
	for productID, xyz := range classifyXYZ(masters) {
		label := labels[productID]
		label.XYZ = xyz
		labels[productID] = label
	}
	return labels
}

// classifyABC ranks products by total revenue descending and assigns classes
// by cumulative revenue share. Revenue ties break by ascending product ID to
// keep reruns byte-identical.
func classifyABC(masters []domain.MasterRecord) map[int64]string {
	revenue := make(map[int64]float64)
	for _, m := range masters {
		revenue[m.ProductID] += m.QuantitySold * m.UnitPrice
	}

	products := make([]int64, 0, len(revenue))
	var total float64
	for id, rev := range revenue {
		products = append(products, id)
		total += rev
	}
	sort.Slice(products, func(i, j int) bool {
		if revenue[products[i]] != revenue[products[j]] {
			return revenue[products[i]] > revenue[products[j]]
		}
		return products[i] < products[j]
	})

	classes := make(map[int64]string, len(products))
	if total <= 0 {
		// Degenerate dataset with no revenue: everything is long tail.
		for _, id := range products {
			classes[id] = "C"
		}
		return classes
	}

	var cumulative float64
	for _, id := range products {
		cumulative += revenue[id]
		cumulativePct := cumulative / total * 100
		switch {
		case cumulativePct <= abcClassACutoff:
			classes[id] = "A"
		case cumulativePct <= abcClassBCutoff:
			classes[id] = "B"
		default:
			classes[id] = "C"
		}
	}
	return classes
}

// classifyXYZ sorts products by ascending coefficient of variation of daily
// demand and splits them into thirds: stable (X), variable (Y),
// intermittent (Z). Group sizes differ by at most one.
func classifyXYZ(masters []domain.MasterRecord) map[int64]string {
	type periodKey struct {
		productID int64
		day       string
	}

	// Demand per product per day; same-day sales aggregate into one observation.
	perPeriod := make(map[periodKey]float64)
	for _, m := range masters {
		key := periodKey{productID: m.ProductID, day: m.SaleDate.Format("2006-01-02")}
		perPeriod[key] += m.QuantitySold
	}

	demand := make(map[int64][]float64)
	keys := make([]periodKey, 0, len(perPeriod))
	for key := range perPeriod {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].productID != keys[j].productID {
			return keys[i].productID < keys[j].productID
		}
		return keys[i].day < keys[j].day
	})
	for _, key := range keys {
		demand[key.productID] = append(demand[key.productID], perPeriod[key])
	}

	cv := make(map[int64]float64, len(demand))
	products := make([]int64, 0, len(demand))
	for id, quantities := range demand {
		cv[id] = coefficientOfVariation(quantities)
		products = append(products, id)
	}
	// CV ties break by product ID so the thirds are stable across reruns.
	sort.Slice(products, func(i, j int) bool {
		if cv[products[i]] != cv[products[j]] {
			return cv[products[i]] < cv[products[j]]
		}
		return products[i] < products[j]
	})

	classes := make(map[int64]string, len(products))
	n := len(products)
	for i, id := range products {
		switch {
		case i < n/3:
			classes[id] = "X"
		case i < 2*n/3:
			classes[id] = "Y"
		default:
			classes[id] = "Z"
		}
	}
	return classes
}

// coefficientOfVariation computes std/(mean+ε) over the per-period demand
// series, using the sample standard deviation. A single observation has no
// dispersion, so its CV is zero.
func coefficientOfVariation(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / (n - 1))

	return std / (mean + cvEpsilon)
}
