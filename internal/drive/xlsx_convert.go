package drive

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// convertTableToCSV converts the first sheet of an XLSX table export to CSV.
// The header row must carry the table's key columns; an export that does not
// look like the canonical table it is named after fails here rather than
// producing a CSV the loader would degrade on row by row.
func convertTableToCSV(xlsxPath, csvPath string, keyColumns []string) error {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("failed to open xlsx file %s: %w", xlsxPath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx file %s has no sheets", xlsxPath)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	if !rows.Next() {
		return fmt.Errorf("xlsx file %s has no header row", xlsxPath)
	}
	header, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read header from %s: %w", xlsxPath, err)
	}
	if err := checkTableHeader(header, keyColumns); err != nil {
		return fmt.Errorf("%s: %w", xlsxPath, err)
	}

	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", csvPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header to %s: %w", csvPath, err)
	}

	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row from %s: %w", xlsxPath, err)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row to %s: %w", csvPath, err)
		}
	}

	if err := rows.Error(); err != nil {
		return fmt.Errorf("error iterating rows in %s: %w", xlsxPath, err)
	}

	return nil
}

// checkTableHeader verifies every key column of the canonical table appears
// in the export header. Matching is case- and separator-insensitive, the
// same lookup the dataset loader applies.
func checkTableHeader(header, keyColumns []string) error {
	seen := make(map[string]struct{}, len(header))
	for _, col := range header {
		seen[normalizeHeaderCell(col)] = struct{}{}
	}

	var missing []string
	for _, col := range keyColumns {
		if _, ok := seen[normalizeHeaderCell(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("header is missing key columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

var headerCellSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeHeaderCell(name string) string {
	return headerCellSanitizer.Replace(strings.TrimSpace(strings.ToLower(name)))
}
