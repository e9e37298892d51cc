// cmd/pipeline/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/arifi89/inventory-optimization/internal/analytics"
	"github.com/arifi89/inventory-optimization/internal/config"
	"github.com/arifi89/inventory-optimization/internal/drive"
	"github.com/arifi89/inventory-optimization/internal/pipeline"
	"github.com/arifi89/inventory-optimization/internal/repository/postgres"
	"github.com/arifi89/inventory-optimization/internal/storage"
	"github.com/arifi89/inventory-optimization/pkg/logger"
)

func newDBURLFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: required,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing canonical table CSVs",
		Value:   "./data/data_model",
		EnvVars: []string{"PIPELINE_DATA_DIR"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logger.SetLevel(level)
	}

	app := &cli.App{
		Name:  "pipeline",
		Usage: "Build and distribute the master inventory dataset",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Run the full build: load, validate, cost, match, assemble, compute KPIs, write CSV",
				Flags: []cli.Flag{
					newDBURLFlag(false),
					newDataDirFlag(),
					&cli.StringFlag{
						Name:    "output-dir",
						Usage:   "Directory the master dataset CSV is written to",
						Value:   "./data/output",
						EnvVars: []string{"PIPELINE_OUTPUT_DIR"},
					},
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Parallel workers for cost allocation",
						Value:   4,
						EnvVars: []string{"PIPELINE_WORKERS"},
					},
					&cli.IntFlag{
						Name:  "flush-rows",
						Usage: "CSV writer flush interval in rows",
						Value: 50000,
					},
					&cli.Float64Flag{
						Name:    "coverage-threshold",
						Usage:   "Coverage percentage below which a warning is logged",
						Value:   99.0,
						EnvVars: []string{"PIPELINE_COVERAGE_THRESHOLD"},
					},
					&cli.BoolFlag{
						Name:  "seed",
						Usage: "Upsert the dataset into Postgres after the build (requires --db-url)",
					},
				},
				Action: runBuild,
			},
			{
				Name:  "seed",
				Usage: "Upsert an existing master dataset CSV into Postgres",
				Flags: []cli.Flag{
					newDBURLFlag(true),
					&cli.StringFlag{
						Name:  "file",
						Usage: "Path to the master dataset CSV",
						Value: filepath.Join("./data/output", pipeline.DatasetFileName),
					},
				},
				Action: runSeed,
			},
			{
				Name:  "download",
				Usage: "Download canonical table exports from object storage into the data directory",
				Flags: []cli.Flag{
					newDataDirFlag(),
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix to download",
						Value: "canonical/",
					},
				},
				Action: runDownload,
			},
			{
				Name:  "sync-drive",
				Usage: "Download canonical table exports from Google Drive into the data directory",
				Flags: []cli.Flag{
					newDataDirFlag(),
					&cli.StringFlag{
						Name:    "folder-id",
						Usage:   "Drive folder ID holding the exports",
						EnvVars: []string{"DRIVE_FOLDER_ID"},
					},
				},
				Action: runDriveSync,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runBuild(c *cli.Context) error {
	cfg := pipeline.Config{
		DataDir:           c.String("data-dir"),
		OutputDir:         c.String("output-dir"),
		Workers:           c.Int("workers"),
		FlushRows:         c.Int("flush-rows"),
		CoverageThreshold: c.Float64("coverage-threshold"),
	}

	var (
		repo         *pipeline.Repository
		seedCallback func(ctx context.Context, csvPath string) error
	)

	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := analytics.Open(dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(c.Context, db); err != nil {
			return err
		}

		repo = pipeline.NewRepository(db)
		if c.Bool("seed") {
			processor := analytics.NewProcessor(db)
			seedCallback = processor.ProcessFile
		}
	} else if c.Bool("seed") {
		return fmt.Errorf("--seed requires --db-url")
	}

	runner := pipeline.NewRunner(cfg, repo, seedCallback)
	result, err := runner.Run(c.Context)
	if err != nil {
		return err
	}

	logger.Log.Info().
		Str("output", result.OutputPath).
		Int("master_rows", result.Run.MasterRows).
		Msg("Build finished")
	return nil
}

func runSeed(c *cli.Context) error {
	db, err := analytics.Open(c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(c.Context, db); err != nil {
		return err
	}

	processor := analytics.NewProcessor(db)
	return processor.ProcessFile(c.Context, c.String("file"))
}

func runDownload(c *cli.Context) error {
	cfg := config.Load()
	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return err
	}

	dataDir := c.String("data-dir")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	prefix := c.String("prefix")
	objects, err := client.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}

	downloaded := 0
	for _, obj := range objects {
		name := filepath.Base(obj.Key)
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		destPath := filepath.Join(dataDir, name)
		if err := client.DownloadObject(c.Context, obj.Key, destPath); err != nil {
			return fmt.Errorf("failed to download %s: %w", obj.Key, err)
		}
		downloaded++
	}

	logger.Log.Info().
		Int("files", downloaded).
		Str("prefix", prefix).
		Str("data_dir", dataDir).
		Msg("Storage download complete")
	return nil
}

func runDriveSync(c *cli.Context) error {
	cfg := config.Load()
	credentials := cfg.Drive.CredentialsJSON
	if credentials == "" {
		return fmt.Errorf("DRIVE_CREDENTIALS_JSON is not configured")
	}

	service, err := drive.NewService(c.Context, credentials)
	if err != nil {
		return err
	}

	folderID := c.String("folder-id")
	if folderID == "" {
		folderID = cfg.Drive.FolderID
	}

	sync := drive.NewSyncService(service, c.String("data-dir"))
	paths, err := sync.SyncFolder(c.Context, folderID)
	if err != nil {
		return err
	}

	logger.Log.Info().Int("files", len(paths)).Msg("Drive sync complete")
	return nil
}
