// internal/domain/reports.go
package domain

// CoverageReport counts how many assembled rows found each optional join.
// Missing reference data is a data-quality signal, not an error: the
// assembler still emits every sale and reports match rates here.
type CoverageReport struct {
	TotalSales       int `json:"total_sales"`
	WACMatched       int `json:"wac_matched"`
	InventoryMatched int `json:"inventory_matched"`
	ProductMatched   int `json:"product_matched"`
	StoreMatched     int `json:"store_matched"`
	VendorMatched    int `json:"vendor_matched"`
}

// WACCoveragePct returns the share of sales with a resolved WAC.
func (r CoverageReport) WACCoveragePct() float64 {
	return pct(r.WACMatched, r.TotalSales)
}

// InventoryCoveragePct returns the share of sales with a matched snapshot.
func (r CoverageReport) InventoryCoveragePct() float64 {
	return pct(r.InventoryMatched, r.TotalSales)
}

func pct(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// QualitySummary describes the finished KPI dataset. Issues are surfaced as
// counts rather than raised as errors; partial results stay usable.
type QualitySummary struct {
	TotalRecords      int     `json:"total_records"`
	NullCostRecords   int     `json:"null_cost_records"`
	NegativeMargins   int     `json:"negative_margins"`
	FullMarginRecords int     `json:"full_margin_records"`
	StockoutFlags     int     `json:"stockout_flags"`
	OverstockFlags    int     `json:"overstock_flags"`
	MeanMarginPct     float64 `json:"mean_margin_percent"`
	MedianMarginPct   float64 `json:"median_margin_percent"`
}

// TableCheck reports duplicate-key and orphaned-foreign-key counts for one
// input table. Corrupt rows are counted, never silently dropped.
type TableCheck struct {
	Table         string `json:"table"`
	Rows          int    `json:"rows"`
	DuplicateKeys int    `json:"duplicate_keys"`
	OrphanedRows  int    `json:"orphaned_rows"`
}

// ValidationReport aggregates referential checks across all input tables.
type ValidationReport struct {
	Checks []TableCheck `json:"checks"`
}

// SegmentSummary is an aggregate of the master dataset for one ABC/XYZ segment.
type SegmentSummary struct {
	Segment      string  `json:"segment" db:"abc_xyz_segment"`
	Products     int     `json:"products" db:"products"`
	Transactions int     `json:"transactions" db:"transactions"`
	Revenue      float64 `json:"revenue" db:"revenue"`
	GrossProfit  float64 `json:"gross_profit" db:"gross_profit"`
}

// VendorPerformance is an aggregate of the master dataset for one vendor.
type VendorPerformance struct {
	VendorID     int64   `json:"vendor_id" db:"vendor_id"`
	VendorName   string  `json:"vendor_name" db:"vendor_name"`
	LeadTimeDays float64 `json:"lead_time_days" db:"lead_time_days"`
	Products     int     `json:"products" db:"products"`
	Revenue      float64 `json:"revenue" db:"revenue"`
	COGS         float64 `json:"cogs" db:"cogs"`
}

// MasterFilter narrows master-record queries served by the API.
type MasterFilter struct {
	ProductIDs []int64  `json:"product_ids"`
	StoreIDs   []int64  `json:"store_ids"`
	Segments   []string `json:"segments"`
	Category   string   `json:"category"`
	Region     string   `json:"region"`
	DateFrom   string   `json:"date_from"`
	DateTo     string   `json:"date_to"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}

// SegmentDashboard is the aggregate payload served to the dashboard UI.
type SegmentDashboard struct {
	Segments []SegmentSummary    `json:"segments"`
	Vendors  []VendorPerformance `json:"vendors"`
	Quality  QualitySummary      `json:"quality"`
}
