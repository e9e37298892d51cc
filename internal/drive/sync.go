package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/arifi89/inventory-optimization/internal/dataset"
)

// tableExport describes one canonical table as it arrives from the export
// folder: the CSV name the dataset loader expects and the key columns an
// XLSX export must carry to count as that table.
type tableExport struct {
	fileName   string
	keyColumns []string
}

// canonicalTables maps recognized export base names (without extension) to
// their table contract. Exports may arrive as .csv or as .xlsx; XLSX files
// are converted on the way in.
var canonicalTables = map[string]tableExport{
	"purchases":           {dataset.PurchasesFile, []string{"product_id", "quantity", "unit_cost"}},
	"sales":               {dataset.SalesFile, []string{"sale_id", "product_id", "store_id", "sale_date"}},
	"inventory_snapshots": {dataset.SnapshotsFile, []string{"product_id", "store_id", "snapshot_date"}},
	"products":            {dataset.ProductsFile, []string{"product_id"}},
	"stores":              {dataset.StoresFile, []string{"store_id"}},
	"vendors":             {dataset.VendorsFile, []string{"vendor_id"}},
}

// SyncService pulls canonical table exports out of a Drive folder into the
// pipeline data directory, so a subsequent build run picks them up.
type SyncService struct {
	drive   *Service
	dataDir string
}

func NewSyncService(drive *Service, dataDir string) *SyncService {
	return &SyncService{drive: drive, dataDir: dataDir}
}

// SyncFolder downloads every recognized canonical table export from folderID
// into the data directory and returns the local paths written. Files whose
// names do not match a canonical table are skipped with a warning.
func (s *SyncService) SyncFolder(ctx context.Context, folderID string) ([]string, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	files, err := s.drive.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		export, ok := canonicalTable(f.Name)
		if !ok {
			log.Warn().Str("file", f.Name).Msg("Skipping non-canonical file in export folder")
			continue
		}

		path, err := s.fetch(ctx, f, export)
		if err != nil {
			return nil, err
		}
		localPaths = append(localPaths, path)
	}

	log.Info().
		Int("files", len(localPaths)).
		Str("data_dir", s.dataDir).
		Msg("Drive export sync complete")

	return localPaths, nil
}

// FetchFile downloads a single export by Drive file ID. The file name must
// match a canonical table.
func (s *SyncService) FetchFile(ctx context.Context, fileID, name string) (string, error) {
	export, ok := canonicalTable(name)
	if !ok {
		return "", fmt.Errorf("file %s is not a canonical table export", name)
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}
	return s.fetch(ctx, &File{ID: fileID, Name: name}, export)
}

func (s *SyncService) fetch(ctx context.Context, f *File, export tableExport) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	localPath := filepath.Join(s.dataDir, export.fileName)

	if ext == ".csv" {
		out, err := os.Create(localPath)
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", localPath, err)
		}
		if err := s.drive.DownloadFile(ctx, f.ID, out); err != nil {
			out.Close()
			return "", fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		if err := out.Close(); err != nil {
			return "", err
		}
		return localPath, nil
	}

	// XLSX: download to a temp file, convert the first sheet, remove the temp.
	tmpPath := filepath.Join(s.dataDir, f.Name)
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}
	if err := s.drive.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if err := convertTableToCSV(tmpPath, localPath, export.keyColumns); err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", f.Name, err)
	}
	_ = os.Remove(tmpPath)

	return localPath, nil
}

// canonicalTable resolves an export file name to its table contract,
// accepting either .csv or .xlsx extensions. Matching is case-insensitive.
func canonicalTable(name string) (tableExport, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".csv" && ext != ".xlsx" {
		return tableExport{}, false
	}
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	export, ok := canonicalTables[base]
	return export, ok
}
