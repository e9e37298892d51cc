package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// seedDataDir lays out a small but fully joined canonical dataset.
func seedDataDir(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "purchases.csv",
		"product_id,quantity,unit_cost,freight_cost,purchase_date,vendor_id\n"+
			"5000,100,10.00,0,2016-01-04,12\n"+
			"5000,150,9.50,0,2016-01-11,12\n"+
			"5000,50,11.00,0,2016-01-18,12\n"+
			"6000,10,2.00,4.00,2016-01-05,13\n")
	writeFile(t, dir, "sales.csv",
		"sale_id,product_id,store_id,sale_date,quantity_sold,unit_price,tax\n"+
			"S1,5000,7,2016-02-15,20,15.00,3.00\n"+
			"S2,6000,7,2016-02-16,2,5.00,0.25\n"+
			"S3,7000,7,2016-02-17,1,9.00,0\n")
	writeFile(t, dir, "inventory_snapshots.csv",
		"product_id,store_id,snapshot_date,on_hand_quantity,inventory_value,snapshot_type\n"+
			"5000,7,2016-02-01,140,1388.33,Ending\n"+
			"6000,7,2016-01-31,30,66.00,Beginning\n")
	writeFile(t, dir, "products.csv",
		"product_id,description,size,category\n"+
			"5000,Ch Dolce Blanc,750mL,Wine\n"+
			"6000,Tonic Water,1L,Mixer\n")
	writeFile(t, dir, "stores.csv",
		"store_id,city,state,region\n7,Hardersfield,AL,South\n")
	writeFile(t, dir, "vendors.csv",
		"vendor_id,name,lead_time_days\n12,Brewster Supply Co,7\n13,Harbor Imports,14\n")
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dataDir := t.TempDir()
	seedDataDir(t, dataDir)
	cfg := DefaultConfig()
	cfg.DataDir = dataDir
	cfg.OutputDir = t.TempDir()
	cfg.Workers = 2
	return cfg
}

func readDataset(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	return rows
}

func column(t *testing.T, header []string, name string) int {
	t.Helper()
	for i, h := range header {
		if h == name {
			return i
		}
	}
	t.Fatalf("column %q not in header", name)
	return -1
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	runner := NewRunner(cfg, nil, nil)

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows := readDataset(t, result.OutputPath)
	if len(rows) != 4 {
		t.Fatalf("dataset rows = %d, want header + 3 sales", len(rows))
	}
	header := rows[0]

	// The fully joined sale carries the exact WAC and margin.
	s1 := rows[1]
	if got := s1[column(t, header, "sale_id")]; got != "S1" {
		t.Fatalf("first row sale_id = %q", got)
	}
	if got := s1[column(t, header, "revenue")]; got != "300" {
		t.Errorf("revenue = %q, want 300", got)
	}
	if got := s1[column(t, header, "wac")]; !strings.HasPrefix(got, "9.9166") {
		t.Errorf("wac = %q, want 2975/300", got)
	}
	if got := s1[column(t, header, "stockout_risk_flag")]; got != "0" {
		t.Errorf("stockout flag = %q, want 0", got)
	}
	if got := s1[column(t, header, "vendor_name")]; got != "Brewster Supply Co" {
		t.Errorf("vendor_name = %q", got)
	}

	// The unpurchased, unsnapshotted product degrades to empty fields,
	// never to zeroes, and the row itself is preserved.
	s3 := rows[3]
	if got := s3[column(t, header, "sale_id")]; got != "S3" {
		t.Fatalf("third row sale_id = %q", got)
	}
	for _, col := range []string{"wac", "purchase_cost", "cogs", "on_hand_quantity", "snapshot_date"} {
		if got := s3[column(t, header, col)]; got != "" {
			t.Errorf("%s = %q, want empty for unmatched sale", col, got)
		}
	}

	if result.Run.Status != StatusCompleted {
		t.Errorf("run status = %q", result.Run.Status)
	}
	if result.Run.SaleRows != 3 || result.Run.MasterRows != 3 {
		t.Errorf("run rows = %d/%d, want 3/3", result.Run.SaleRows, result.Run.MasterRows)
	}
	if result.Coverage.WACMatched != 2 {
		t.Errorf("WACMatched = %d, want 2", result.Coverage.WACMatched)
	}
	if result.Quality.TotalRecords != 3 || result.Quality.NullCostRecords != 1 {
		t.Errorf("quality = %+v", result.Quality)
	}
}

func TestRun_Deterministic(t *testing.T) {
	cfg := testConfig(t)

	first, err := NewRunner(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	content1, err := os.ReadFile(first.OutputPath)
	if err != nil {
		t.Fatal(err)
	}

	second, err := NewRunner(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	content2, err := os.ReadFile(second.OutputPath)
	if err != nil {
		t.Fatal(err)
	}

	if string(content1) != string(content2) {
		t.Error("reruns over identical inputs must be byte-identical")
	}
}

func TestRun_SeedCallbackReceivesDataset(t *testing.T) {
	cfg := testConfig(t)

	var seeded string
	callback := func(ctx context.Context, csvPath string) error {
		seeded = csvPath
		return nil
	}

	result, err := NewRunner(cfg, nil, callback).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seeded != result.OutputPath {
		t.Errorf("callback path = %q, want %q", seeded, result.OutputPath)
	}
}

func TestRun_MissingDataDirFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "nope")
	cfg.OutputDir = t.TempDir()

	if _, err := NewRunner(cfg, nil, nil).Run(context.Background()); err == nil {
		t.Fatal("Run should fail without input tables")
	}
}
