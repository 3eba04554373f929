package backend

import (
	"context"
	"fmt"
	"log/slog"

	"visadash/internal/config"
	"visadash/internal/dataset"
	"visadash/internal/storage"
)

// Type selects where the petition dataset is loaded from.
type Type string

const (
	CSVBackend    Type = "csv"
	SQLiteBackend Type = "sqlite"
)

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case CSVBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Result bundles the initial snapshot with a Reload hook for refresh
// notifications and an optional Cleanup for held resources.
type Result struct {
	Dataset *dataset.Dataset
	Reload  func(context.Context) (*dataset.Dataset, error)
	Cleanup func() error
}

// Factory opens dataset backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open loads the initial snapshot from the configured backend.
func (f *Factory) Open(ctx context.Context, cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		return f.openSQLite(ctx, cfg)
	default:
		return f.openCSV(cfg)
	}
}

func (f *Factory) openCSV(cfg *config.Config) (*Result, error) {
	reload := func(context.Context) (*dataset.Dataset, error) {
		return dataset.LoadCSV(cfg.CSVPath)
	}

	ds, err := dataset.LoadCSV(cfg.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("load csv dataset: %w", err)
	}

	f.logger.Info("Initialized csv backend",
		"dataset_path", cfg.CSVPath,
		"rows", ds.Len())

	return &Result{Dataset: ds, Reload: reload}, nil
}

func (f *Factory) openSQLite(ctx context.Context, cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	reload := func(ctx context.Context) (*dataset.Dataset, error) {
		records, err := repo.LoadRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("load sqlite dataset: %w", err)
		}
		return dataset.New(records), nil
	}

	ds, err := reload(ctx)
	if err != nil {
		repo.Close()
		return nil, err
	}

	f.logger.Info("Initialized sqlite backend",
		"db_path", cfg.SQLiteDBPath,
		"rows", ds.Len())

	return &Result{Dataset: ds, Reload: reload, Cleanup: repo.Close}, nil
}
