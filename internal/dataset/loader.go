// Package dataset loads the canonical fact and dimension tables from CSV
// exports and runs referential checks over them. Column names are assumed
// canonical; the schema adapter that normalizes vendor-specific headers runs
// upstream of this package.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/arifi89/inventory-optimization/internal/domain"
	"github.com/arifi89/inventory-optimization/pkg/logger"
)

// Canonical file names inside the data directory.
const (
	PurchasesFile = "purchases.csv"
	SalesFile     = "sales.csv"
	SnapshotsFile = "inventory_snapshots.csv"
	ProductsFile  = "products.csv"
	StoresFile    = "stores.csv"
	VendorsFile   = "vendors.csv"
)

const dateLayout = "2006-01-02"

// Tables bundles everything one pipeline run reads.
type Tables struct {
	Purchases  []domain.PurchaseLine
	Sales      []domain.SaleRecord
	Snapshots  []domain.InventorySnapshot
	Dimensions domain.Dimensions
}

// Loader reads the canonical tables from a directory of CSV exports.
type Loader struct {
	dataDir string
}

// NewLoader creates a loader rooted at dataDir.
func NewLoader(dataDir string) *Loader {
	return &Loader{dataDir: dataDir}
}

// LoadAll reads every canonical table. The three fact tables are required;
// dimension tables are optional and degrade to empty lookups, since the
// assembler leaves dimension fields NULL for unmatched rows anyway.
func (l *Loader) LoadAll() (*Tables, error) {
	purchases, err := l.LoadPurchases()
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}
	sales, err := l.LoadSales()
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	snapshots, err := l.LoadSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory snapshots: %w", err)
	}
	dims, err := l.LoadDimensions()
	if err != nil {
		return nil, fmt.Errorf("failed to load dimensions: %w", err)
	}

	logger.Log.Info().
		Int("purchases", len(purchases)).
		Int("sales", len(sales)).
		Int("snapshots", len(snapshots)).
		Int("products", len(dims.Products)).
		Int("stores", len(dims.Stores)).
		Int("vendors", len(dims.Vendors)).
		Msg("Loaded canonical tables")

	return &Tables{
		Purchases:  purchases,
		Sales:      sales,
		Snapshots:  snapshots,
		Dimensions: dims,
	}, nil
}

// LoadPurchases reads the purchase-line fact table.
func (l *Loader) LoadPurchases() ([]domain.PurchaseLine, error) {
	table, err := readTable(filepath.Join(l.dataDir, PurchasesFile))
	if err != nil {
		return nil, err
	}

	idxProduct := table.colIndex("product_id")
	idxQty := table.colIndex("quantity")
	idxUnitCost := table.colIndex("unit_cost")
	idxFreight := table.colIndex("freight_cost")
	idxDate := table.colIndex("purchase_date")
	idxVendor := table.colIndex("vendor_id")
	table.warnMissing(PurchasesFile,
		"product_id", idxProduct, "quantity", idxQty, "unit_cost", idxUnitCost,
		"freight_cost", idxFreight, "purchase_date", idxDate, "vendor_id", idxVendor)

	lines := make([]domain.PurchaseLine, 0, len(table.rows))
	for _, record := range table.rows {
		lines = append(lines, domain.PurchaseLine{
			ProductID:    parseInt(record, idxProduct),
			Quantity:     parseFloat(record, idxQty),
			UnitCost:     parseFloat(record, idxUnitCost),
			FreightCost:  parseFloat(record, idxFreight),
			PurchaseDate: parseDate(record, idxDate),
			VendorID:     parseInt(record, idxVendor),
		})
	}
	return lines, nil
}

// LoadSales reads the sale fact table.
func (l *Loader) LoadSales() ([]domain.SaleRecord, error) {
	table, err := readTable(filepath.Join(l.dataDir, SalesFile))
	if err != nil {
		return nil, err
	}

	idxSale := table.colIndex("sale_id")
	idxProduct := table.colIndex("product_id")
	idxStore := table.colIndex("store_id")
	idxDate := table.colIndex("sale_date")
	idxQty := table.colIndex("quantity_sold")
	idxPrice := table.colIndex("unit_price")
	idxTax := table.colIndex("tax")
	table.warnMissing(SalesFile,
		"sale_id", idxSale, "product_id", idxProduct, "store_id", idxStore,
		"sale_date", idxDate, "quantity_sold", idxQty, "unit_price", idxPrice,
		"tax", idxTax)

	sales := make([]domain.SaleRecord, 0, len(table.rows))
	for _, record := range table.rows {
		sales = append(sales, domain.SaleRecord{
			SaleID:       get(record, idxSale),
			ProductID:    parseInt(record, idxProduct),
			StoreID:      parseInt(record, idxStore),
			SaleDate:     parseDate(record, idxDate),
			QuantitySold: parseFloat(record, idxQty),
			UnitPrice:    parseFloat(record, idxPrice),
			Tax:          parseFloat(record, idxTax),
		})
	}
	return sales, nil
}

// LoadSnapshots reads the inventory snapshot fact table.
func (l *Loader) LoadSnapshots() ([]domain.InventorySnapshot, error) {
	table, err := readTable(filepath.Join(l.dataDir, SnapshotsFile))
	if err != nil {
		return nil, err
	}

	idxProduct := table.colIndex("product_id")
	idxStore := table.colIndex("store_id")
	idxDate := table.colIndex("snapshot_date")
	idxOnHand := table.colIndex("on_hand_quantity")
	idxValue := table.colIndex("inventory_value")
	idxType := table.colIndex("snapshot_type")
	table.warnMissing(SnapshotsFile,
		"product_id", idxProduct, "store_id", idxStore, "snapshot_date", idxDate,
		"on_hand_quantity", idxOnHand, "inventory_value", idxValue,
		"snapshot_type", idxType)

	snapshots := make([]domain.InventorySnapshot, 0, len(table.rows))
	for _, record := range table.rows {
		snapshots = append(snapshots, domain.InventorySnapshot{
			ProductID:      parseInt(record, idxProduct),
			StoreID:        parseInt(record, idxStore),
			SnapshotDate:   parseDate(record, idxDate),
			OnHandQuantity: parseFloat(record, idxOnHand),
			InventoryValue: parseFloat(record, idxValue),
			Type:           parseSnapshotType(get(record, idxType)),
		})
	}
	return snapshots, nil
}

// LoadDimensions reads the product, store, and vendor lookups. A missing
// dimension file is not an error: its attributes stay NULL on master rows.
func (l *Loader) LoadDimensions() (domain.Dimensions, error) {
	dims := domain.Dimensions{
		Products: make(map[int64]domain.Product),
		Stores:   make(map[int64]domain.Store),
		Vendors:  make(map[int64]domain.Vendor),
	}

	if table, err := readTable(filepath.Join(l.dataDir, ProductsFile)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return dims, err
		}
		logger.Log.Warn().Str("file", ProductsFile).Msg("Dimension file missing, product attributes will be null")
	} else {
		idxID := table.colIndex("product_id")
		idxDesc := table.colIndex("description")
		idxSize := table.colIndex("size")
		idxCategory := table.colIndex("category")
		for _, record := range table.rows {
			p := domain.Product{
				ProductID:   parseInt(record, idxID),
				Description: get(record, idxDesc),
				Size:        get(record, idxSize),
				Category:    get(record, idxCategory),
			}
			dims.Products[p.ProductID] = p
		}
	}

	if table, err := readTable(filepath.Join(l.dataDir, StoresFile)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return dims, err
		}
		logger.Log.Warn().Str("file", StoresFile).Msg("Dimension file missing, store attributes will be null")
	} else {
		idxID := table.colIndex("store_id")
		idxCity := table.colIndex("city")
		idxState := table.colIndex("state")
		idxRegion := table.colIndex("region")
		for _, record := range table.rows {
			s := domain.Store{
				StoreID: parseInt(record, idxID),
				City:    get(record, idxCity),
				State:   get(record, idxState),
				Region:  get(record, idxRegion),
			}
			dims.Stores[s.StoreID] = s
		}
	}

	if table, err := readTable(filepath.Join(l.dataDir, VendorsFile)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return dims, err
		}
		logger.Log.Warn().Str("file", VendorsFile).Msg("Dimension file missing, vendor attributes will be null")
	} else {
		idxID := table.colIndex("vendor_id")
		idxName := table.colIndex("name")
		idxLead := table.colIndex("lead_time_days")
		for _, record := range table.rows {
			v := domain.Vendor{
				VendorID:     parseInt(record, idxID),
				Name:         get(record, idxName),
				LeadTimeDays: parseFloat(record, idxLead),
			}
			dims.Vendors[v.VendorID] = v
		}
	}

	return dims, nil
}

// table is one fully read CSV file.
type table struct {
	path   string
	header []string
	rows   [][]string
}

func readTable(path string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	// Degraded rows may be ragged; length is checked per field instead.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("file %s is empty", path)
		}
		return nil, err
	}

	t := &table{path: path, header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

// colIndex finds a header column by normalized name, returning -1 when the
// column is absent.
func (t *table) colIndex(name string) int {
	target := normalizeColumnName(name)
	for i, h := range t.header {
		if normalizeColumnName(h) == target {
			return i
		}
	}
	return -1
}

// warnMissing logs each absent column once. Absent columns substitute zero
// values so the run proceeds in a degraded mode instead of aborting.
func (t *table) warnMissing(file string, pairs ...interface{}) {
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		if pairs[i+1].(int) < 0 {
			logger.Log.Warn().
				Str("file", file).
				Str("column", name).
				Msg("Expected column missing, substituting defaults")
		}
	}
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

func get(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloat(record []string, idx int) float64 {
	v := get(record, idx)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func parseInt(record []string, idx int) int64 {
	v := get(record, idx)
	if v == "" {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

func parseDate(record []string, idx int) time.Time {
	v := get(record, idx)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseSnapshotType(v string) domain.SnapshotType {
	if strings.EqualFold(v, string(domain.SnapshotEnding)) {
		return domain.SnapshotEnding
	}
	return domain.SnapshotBeginning
}
