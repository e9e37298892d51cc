package drive

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeXLSX(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	f.Close()
}

func TestConvertTableToCSV(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "sales.xlsx")
	csvPath := filepath.Join(dir, "sales.csv")

	writeXLSX(t, xlsxPath, [][]interface{}{
		{"sale_id", "product_id", "store_id", "sale_date", "quantity_sold"},
		{"S1", 5000, 10, "2025-03-01", 3},
		{"S2", 6000, 10, "2025-03-02", 1},
	})

	export, ok := canonicalTable("sales.xlsx")
	if !ok {
		t.Fatal("sales.xlsx should resolve to a canonical table")
	}
	if err := convertTableToCSV(xlsxPath, csvPath, export.keyColumns); err != nil {
		t.Fatalf("convert: %v", err)
	}

	out, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer out.Close()

	records, err := csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	if records[0][0] != "sale_id" || records[1][0] != "S1" || records[2][4] != "1" {
		t.Errorf("unexpected csv content: %v", records)
	}
}

func TestConvertTableToCSV_HeaderCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "vendors.xlsx")
	csvPath := filepath.Join(dir, "vendors.csv")

	writeXLSX(t, xlsxPath, [][]interface{}{
		{"Vendor ID", "Name", "Lead Time Days"},
		{77, "Acme Distribution", 4},
	})

	if err := convertTableToCSV(xlsxPath, csvPath, []string{"vendor_id"}); err != nil {
		t.Fatalf("convert: %v", err)
	}
}

func TestConvertTableToCSV_MissingKeyColumn(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "sales.xlsx")
	csvPath := filepath.Join(dir, "sales.csv")

	writeXLSX(t, xlsxPath, [][]interface{}{
		{"sale_id", "product_id", "quantity_sold"},
		{"S1", 5000, 3},
	})

	err := convertTableToCSV(xlsxPath, csvPath, []string{"sale_id", "product_id", "store_id", "sale_date"})
	if err == nil {
		t.Fatal("expected error for export missing key columns")
	}
	if !strings.Contains(err.Error(), "store_id") {
		t.Errorf("error should name the missing column, got: %v", err)
	}
	if _, statErr := os.Stat(csvPath); statErr == nil {
		t.Error("no csv should be written for a rejected export")
	}
}

func TestConvertTableToCSV_MissingFile(t *testing.T) {
	dir := t.TempDir()
	err := convertTableToCSV(filepath.Join(dir, "missing.xlsx"), filepath.Join(dir, "out.csv"), nil)
	if err == nil {
		t.Fatal("expected error for missing xlsx")
	}
}
