package drive

import "testing"

func TestCanonicalTable(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		match bool
	}{
		{"sales.csv", "sales.csv", true},
		{"Sales.CSV", "sales.csv", true},
		{"inventory_snapshots.xlsx", "inventory_snapshots.csv", true},
		{"purchases.xlsx", "purchases.csv", true},
		{"vendors.csv", "vendors.csv", true},
		{"notes.txt", "", false},
		{"sales_2025.csv", "", false},
		{"sales", "", false},
	}

	for _, tt := range tests {
		export, ok := canonicalTable(tt.in)
		if ok != tt.match {
			t.Errorf("canonicalTable(%q) matched=%v, want %v", tt.in, ok, tt.match)
			continue
		}
		if ok && export.fileName != tt.want {
			t.Errorf("canonicalTable(%q) = %q, want %q", tt.in, export.fileName, tt.want)
		}
	}
}

func TestCanonicalTable_KeyColumns(t *testing.T) {
	export, ok := canonicalTable("sales.xlsx")
	if !ok {
		t.Fatal("sales.xlsx should resolve to a canonical table")
	}
	if len(export.keyColumns) == 0 {
		t.Fatal("sales export should carry key columns")
	}
}
