package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bikedash/internal/dataset/csvfile"
	"bikedash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	loader := csvfile.New(dataDir, config.DayFile, config.HourFile)

	f.logger.Info("Initialized CSV backend",
		"data_directory", dataDir,
		"day_file", config.DayFile,
		"hour_file", config.HourFile)

	return &BackendResult{
		Loader: loader,
		Files:  loader.Files(),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	info, err := repo.LastImport(ctx)
	if err != nil {
		f.logger.Warn("SQLite database has no import yet, run bikedash-import first",
			"db_path", config.SQLiteDBPath, "error", err)
	} else {
		f.logger.Info("Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"source", info.Source,
			"imported_at", info.ImportedAt)
	}

	return &BackendResult{
		Loader:  repo,
		Cleanup: repo.Close,
	}, nil
}
