// Command bikedash-import loads the day and hour CSV files into the SQLite
// database used by DATA_BACKEND=sqlite.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"bikedash/internal/cli"
	"bikedash/internal/config"
	"bikedash/internal/dataset/csvfile"
	applog "bikedash/internal/log"
	"bikedash/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentImport)

	cfg := config.Load()
	dir := flag.String("dir", cfg.DataDir, "directory holding the CSV files")
	day := flag.String("day", cfg.DayCSV, "daily CSV file name")
	hour := flag.String("hour", cfg.HourCSV, "hourly CSV file name")
	dbPath := flag.String("db", cfg.SQLiteDBPath, "SQLite database path")
	timeout := flag.Duration("timeout", 5*time.Minute, "import timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	snap, err := csvfile.New(*dir, *day, *hour).Load(ctx)
	if err != nil {
		logger.Error("Failed to read CSV files", applog.FieldError, err, "dir", *dir, applog.FieldOperation, applog.OpLoad)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, *dbPath)
	defer repo.Close()

	if err := repo.ImportSnapshot(ctx, snap); err != nil {
		logger.Error("Import failed", applog.FieldError, err, applog.FieldOperation, applog.OpImport)
		repo.Close()
		os.Exit(1)
	}

	info, err := repo.LastImport(ctx)
	if err != nil {
		logger.Warn("Could not read back the import record", applog.FieldError, err)
		return
	}
	version, _, _ := storage.SchemaVersion(*dbPath)
	logger.Info("Import complete",
		applog.FieldSource, info.Source,
		applog.FieldDailyRows, info.DailyRows,
		applog.FieldHourlyRows, info.HourlyRows,
		"schema_version", version,
		applog.FieldDuration, time.Since(start).Milliseconds())
}
