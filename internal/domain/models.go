// internal/domain/models.go
package domain

import (
	"database/sql"
	"time"
)

// SnapshotType distinguishes beginning-of-period from end-of-period inventory counts.
type SnapshotType string

const (
	SnapshotBeginning SnapshotType = "Beginning"
	SnapshotEnding    SnapshotType = "Ending"
)

// PurchaseLine is a single purchase transaction line. Purchase lines are the
// source of truth for weighted average cost; they are never mutated.
type PurchaseLine struct {
	ProductID    int64     `json:"product_id" db:"product_id"`
	Quantity     float64   `json:"quantity" db:"quantity"`
	UnitCost     float64   `json:"unit_cost" db:"unit_cost"`
	FreightCost  float64   `json:"freight_cost" db:"freight_cost"`
	PurchaseDate time.Time `json:"purchase_date" db:"purchase_date"`
	VendorID     int64     `json:"vendor_id" db:"vendor_id"`
}

// SaleRecord is a single sale transaction line.
type SaleRecord struct {
	SaleID       string    `json:"sale_id" db:"sale_id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	StoreID      int64     `json:"store_id" db:"store_id"`
	SaleDate     time.Time `json:"sale_date" db:"sale_date"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
	UnitPrice    float64   `json:"unit_price" db:"unit_price"`
	Tax          float64   `json:"tax" db:"tax"`
}

// InventorySnapshot is an irregular-cadence on-hand count for a product at a store.
type InventorySnapshot struct {
	ProductID      int64        `json:"product_id" db:"product_id"`
	StoreID        int64        `json:"store_id" db:"store_id"`
	SnapshotDate   time.Time    `json:"snapshot_date" db:"snapshot_date"`
	OnHandQuantity float64      `json:"on_hand_quantity" db:"on_hand_quantity"`
	InventoryValue float64      `json:"inventory_value" db:"inventory_value"`
	Type           SnapshotType `json:"snapshot_type" db:"snapshot_type"`
}

// WACRecord is the per-product output of the cost allocation engine.
// WAC and FreightPerUnit are NULL when the product has zero total quantity,
// never zero: a zero cost would silently credit free goods downstream.
type WACRecord struct {
	ProductID      int64           `json:"product_id" db:"product_id"`
	WAC            sql.NullFloat64 `json:"wac" db:"wac"`
	FreightPerUnit sql.NullFloat64 `json:"freight_per_unit" db:"freight_per_unit"`
	TotalQuantity  float64         `json:"total_quantity" db:"total_quantity"`

	// PrimaryVendorID is the vendor that supplied the largest purchased
	// quantity of the product. Sales carry no vendor key, so this is the
	// key used to attach vendor attributes to master records.
	PrimaryVendorID sql.NullInt64 `json:"primary_vendor_id" db:"primary_vendor_id"`
}

// Product is a dimension row with descriptive product attributes.
type Product struct {
	ProductID   int64  `json:"product_id" db:"product_id"`
	Description string `json:"description" db:"description"`
	Size        string `json:"size" db:"size"`
	Category    string `json:"category" db:"category"`
}

// Store is a dimension row with store location attributes.
type Store struct {
	StoreID int64  `json:"store_id" db:"store_id"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	Region  string `json:"region" db:"region"`
}

// Vendor is a dimension row with vendor attributes.
type Vendor struct {
	VendorID     int64   `json:"vendor_id" db:"vendor_id"`
	Name         string  `json:"name" db:"name"`
	LeadTimeDays float64 `json:"lead_time_days" db:"lead_time_days"`
}

// SnapshotMatch is the per-sale output of the temporal inventory matcher.
// All fields are NULL when no snapshot dated on or before the sale exists
// for the sale's product and store.
type SnapshotMatch struct {
	SnapshotDate   sql.NullTime    `json:"snapshot_date" db:"snapshot_date"`
	SnapshotType   sql.NullString  `json:"snapshot_type" db:"snapshot_type"`
	OnHandQuantity sql.NullFloat64 `json:"on_hand_quantity" db:"on_hand_quantity"`
	InventoryValue sql.NullFloat64 `json:"inventory_value" db:"inventory_value"`
}

// MasterRecord is one fully denormalized row per sale: the sale itself plus
// matched cost, inventory, and dimension attributes. Unmatched joins degrade
// to NULL fields; a sale is never dropped.
type MasterRecord struct {
	SaleRecord

	// Cost allocation (NULL when the product was never purchased).
	WAC            sql.NullFloat64 `json:"wac" db:"wac"`
	FreightPerUnit sql.NullFloat64 `json:"freight_per_unit" db:"freight_per_unit"`
	LandedCost     sql.NullFloat64 `json:"landed_cost" db:"landed_cost"`

	// Temporal inventory match.
	SnapshotDate   sql.NullTime    `json:"snapshot_date" db:"snapshot_date"`
	SnapshotType   sql.NullString  `json:"snapshot_type" db:"snapshot_type"`
	OnHandQuantity sql.NullFloat64 `json:"on_hand_quantity" db:"on_hand_quantity"`
	InventoryValue sql.NullFloat64 `json:"inventory_value" db:"inventory_value"`

	// Dimension attributes.
	ProductDescription sql.NullString  `json:"product_description" db:"product_description"`
	ProductSize        sql.NullString  `json:"product_size" db:"product_size"`
	ProductCategory    sql.NullString  `json:"product_category" db:"product_category"`
	StoreCity          sql.NullString  `json:"store_city" db:"store_city"`
	StoreState         sql.NullString  `json:"store_state" db:"store_state"`
	StoreRegion        sql.NullString  `json:"store_region" db:"store_region"`
	VendorID           sql.NullInt64   `json:"vendor_id" db:"vendor_id"`
	VendorName         sql.NullString  `json:"vendor_name" db:"vendor_name"`
	VendorLeadTimeDays sql.NullFloat64 `json:"vendor_lead_time_days" db:"vendor_lead_time_days"`

	// Time dimensions derived from the sale date.
	SaleYear    int `json:"sale_year" db:"sale_year"`
	SaleQuarter int `json:"sale_quarter" db:"sale_quarter"`
	SaleMonth   int `json:"sale_month" db:"sale_month"`
	SaleWeek    int `json:"sale_week" db:"sale_week"`
	SaleWeekday int `json:"sale_weekday" db:"sale_weekday"`
}

// KPIRecord is a MasterRecord extended with derived financial and inventory
// KPIs plus dataset-wide classification labels.
type KPIRecord struct {
	MasterRecord

	Revenue      float64         `json:"revenue" db:"revenue"`
	PurchaseCost sql.NullFloat64 `json:"purchase_cost" db:"purchase_cost"`
	FreightCost  float64         `json:"freight_cost" db:"freight_cost"`
	COGS         sql.NullFloat64 `json:"cogs" db:"cogs"`
	GrossProfit  float64         `json:"gross_profit" db:"gross_profit"`
	MarginPct    float64         `json:"margin_percent" db:"margin_percent"`

	InventoryTurnover float64 `json:"inventory_turnover" db:"inventory_turnover"`
	DaysOfInventory   float64 `json:"days_of_inventory" db:"days_of_inventory"`
	StockoutRiskFlag  int     `json:"stockout_risk_flag" db:"stockout_risk_flag"`
	OverstockRiskFlag int     `json:"overstock_risk_flag" db:"overstock_risk_flag"`

	ABCClass string `json:"abc_class" db:"abc_class"`
	XYZClass string `json:"xyz_class" db:"xyz_class"`
	Segment  string `json:"abc_xyz_segment" db:"abc_xyz_segment"`
}

// Dimensions bundles the static lookup tables consumed by the assembler.
type Dimensions struct {
	Products map[int64]Product
	Stores   map[int64]Store
	Vendors  map[int64]Vendor
}
