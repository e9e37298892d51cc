// Package kpi derives financial and inventory KPIs from the assembled
// master dataset and joins dataset-wide ABC/XYZ classification labels back
// onto every transaction row. The engine is stateless: it consumes one
// immutable input table and returns a new one.
package kpi

import (
	"database/sql"
	"sort"

	"github.com/arifi89/inventory-optimization/internal/domain"
)

const daysPerYear = 365

// Engine computes KPI records from master records.
type Engine struct{}

// NewEngine creates a KPI engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute returns one KPIRecord per MasterRecord plus a quality summary.
// Division edges are always guarded to defined fallbacks; no output value
// is ever NaN or infinite.
func (e *Engine) Compute(masters []domain.MasterRecord) ([]domain.KPIRecord, domain.QualitySummary) {
	records := make([]domain.KPIRecord, len(masters))
	for i, m := range masters {
		records[i] = e.computeRow(m)
	}

	labels := Classify(masters)
	for i := range records {
		label := labels[records[i].ProductID]
		records[i].ABCClass = label.ABC
		records[i].XYZClass = label.XYZ
		records[i].Segment = label.ABC + label.XYZ
	}

	return records, summarize(records)
}

// computeRow derives the per-transaction KPIs for one master record.
func (e *Engine) computeRow(m domain.MasterRecord) domain.KPIRecord {
	rec := domain.KPIRecord{MasterRecord: m}

	rec.Revenue = m.QuantitySold * m.UnitPrice

	// Cost absence is attributable (no purchase history), so purchase cost
	// and COGS stay NULL. Freight absence is not, so it falls back to zero.
	if m.FreightPerUnit.Valid {
		rec.FreightCost = m.QuantitySold * m.FreightPerUnit.Float64
	}
	if m.WAC.Valid {
		purchaseCost := m.QuantitySold * m.WAC.Float64
		rec.PurchaseCost = sql.NullFloat64{Float64: purchaseCost, Valid: true}
		rec.COGS = sql.NullFloat64{Float64: purchaseCost + rec.FreightCost, Valid: true}
	}

	netRevenue := rec.Revenue - m.Tax
	if rec.COGS.Valid {
		rec.GrossProfit = netRevenue - rec.COGS.Float64
		if netRevenue > 0 {
			rec.MarginPct = 100 * rec.GrossProfit / netRevenue
		}
	}
	// With no COGS the profit figures stay zero and the row is counted as
	// a null-cost record in the quality summary instead.

	if m.OnHandQuantity.Valid {
		onHand := m.OnHandQuantity.Float64
		if onHand > 0 {
			rec.InventoryTurnover = m.QuantitySold / onHand
		}
		if rec.InventoryTurnover > 0 {
			rec.DaysOfInventory = daysPerYear / rec.InventoryTurnover
		}
		if onHand < m.QuantitySold {
			rec.StockoutRiskFlag = 1
		}
		if onHand > 2*m.QuantitySold {
			rec.OverstockRiskFlag = 1
		}
	}
	// Without on-hand data the risk flags stay 0: absence of evidence is
	// not a stockout.

	return rec
}

// summarize builds the dataset-level quality report. Rows without COGS carry
// a placeholder zero margin, so they are counted as null-cost records and
// excluded from the margin statistics.
func summarize(records []domain.KPIRecord) domain.QualitySummary {
	summary := domain.QualitySummary{TotalRecords: len(records)}
	if len(records) == 0 {
		return summary
	}

	margins := make([]float64, 0, len(records))
	var marginSum float64
	for _, rec := range records {
		if !rec.COGS.Valid {
			summary.NullCostRecords++
		}
		if rec.MarginPct < 0 {
			summary.NegativeMargins++
		}
		if rec.MarginPct == 100 {
			summary.FullMarginRecords++
		}
		summary.StockoutFlags += rec.StockoutRiskFlag
		summary.OverstockFlags += rec.OverstockRiskFlag
		if rec.COGS.Valid {
			margins = append(margins, rec.MarginPct)
			marginSum += rec.MarginPct
		}
	}

	if len(margins) == 0 {
		return summary
	}

	summary.MeanMarginPct = marginSum / float64(len(margins))
	sort.Float64s(margins)
	mid := len(margins) / 2
	if len(margins)%2 == 1 {
		summary.MedianMarginPct = margins[mid]
	} else {
		summary.MedianMarginPct = (margins[mid-1] + margins[mid]) / 2
	}

	return summary
}
