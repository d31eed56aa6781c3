package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bikedash/internal/core"

	_ "modernc.org/sqlite"
)

// ImportInfo describes the most recent snapshot import.
type ImportInfo struct {
	Source     string
	DailyRows  int
	HourlyRows int
	ImportedAt time.Time
}

// ErrNoImport is returned when the database has never been filled.
var ErrNoImport = errors.New("no dataset imported")

// SQLiteRepository stores one dataset snapshot and serves it as a dataset.Loader.
type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, dbPath: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ImportSnapshot replaces the stored tables with snap in one transaction.
func (r *SQLiteRepository) ImportSnapshot(ctx context.Context, snap *core.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("import snapshot: nil snapshot")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM daily_records", "DELETE FROM hourly_records"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	dailyStmt, err := tx.PrepareContext(ctx, `INSERT INTO daily_records
		(day, season, weather, temp, working_day, casual, registered, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare daily insert: %w", err)
	}
	defer dailyStmt.Close()

	for i, d := range snap.Daily {
		if err := d.Date.Validate(); err != nil {
			return fmt.Errorf("daily row %d: %w", i, err)
		}
		if _, err := dailyStmt.ExecContext(ctx, d.Date.String(), d.Season, d.Weather, d.Temp,
			boolToInt(d.WorkingDay), d.Casual, d.Registered, d.Total); err != nil {
			return fmt.Errorf("insert daily row %d: %w", i, err)
		}
	}

	hourlyStmt, err := tx.PrepareContext(ctx, `INSERT INTO hourly_records
		(day, hour, season, weather, casual, registered, total)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare hourly insert: %w", err)
	}
	defer hourlyStmt.Close()

	for i, h := range snap.Hourly {
		if err := h.Date.Validate(); err != nil {
			return fmt.Errorf("hourly row %d: %w", i, err)
		}
		if _, err := hourlyStmt.ExecContext(ctx, h.Date.String(), h.Hour, h.Season, h.Weather,
			h.Casual, h.Registered, h.Total); err != nil {
			return fmt.Errorf("insert hourly row %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, daily_rows, hourly_rows, imported_at) VALUES (?, ?, ?, ?)`,
		snap.Source, len(snap.Daily), len(snap.Hourly), time.Now().UTC()); err != nil {
		return fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot imported to SQLite",
		"source", snap.Source,
		"daily_rows", len(snap.Daily),
		"hourly_rows", len(snap.Hourly),
		"db_path", r.dbPath)
	return nil
}

// Load implements dataset.Loader
func (r *SQLiteRepository) Load(ctx context.Context) (*core.Snapshot, error) {
	info, err := r.LastImport(ctx)
	if err != nil {
		return nil, err
	}

	daily, err := r.loadDaily(ctx)
	if err != nil {
		return nil, err
	}
	hourly, err := r.loadHourly(ctx)
	if err != nil {
		return nil, err
	}

	return &core.Snapshot{
		Daily:    daily,
		Hourly:   hourly,
		Source:   "sqlite:" + info.Source,
		LoadedAt: info.ImportedAt,
	}, nil
}

// LastImport returns metadata of the latest import, ErrNoImport if none.
func (r *SQLiteRepository) LastImport(ctx context.Context) (ImportInfo, error) {
	var info ImportInfo
	err := r.db.QueryRowContext(ctx,
		`SELECT source, daily_rows, hourly_rows, imported_at FROM imports ORDER BY id DESC LIMIT 1`).
		Scan(&info.Source, &info.DailyRows, &info.HourlyRows, &info.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ImportInfo{}, ErrNoImport
	}
	if err != nil {
		return ImportInfo{}, fmt.Errorf("read last import: %w", err)
	}
	return info, nil
}

func (r *SQLiteRepository) loadDaily(ctx context.Context) ([]core.DailyRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT day, season, weather, temp, working_day, casual, registered, total
		FROM daily_records ORDER BY day, id`)
	if err != nil {
		return nil, fmt.Errorf("query daily records: %w", err)
	}
	defer rows.Close()

	var out []core.DailyRecord
	for rows.Next() {
		var (
			rec        core.DailyRecord
			day        string
			workingDay int
		)
		if err := rows.Scan(&day, &rec.Season, &rec.Weather, &rec.Temp, &workingDay,
			&rec.Casual, &rec.Registered, &rec.Total); err != nil {
			return nil, fmt.Errorf("scan daily record: %w", err)
		}
		if rec.Date, err = core.ParseDate(day); err != nil {
			return nil, fmt.Errorf("%w: daily record: %v", core.ErrMalformedRecord, err)
		}
		rec.WorkingDay = workingDay == 1
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily records: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) loadHourly(ctx context.Context) ([]core.HourlyRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT day, hour, season, weather, casual, registered, total
		FROM hourly_records ORDER BY day, hour, id`)
	if err != nil {
		return nil, fmt.Errorf("query hourly records: %w", err)
	}
	defer rows.Close()

	var out []core.HourlyRecord
	for rows.Next() {
		var (
			rec core.HourlyRecord
			day string
		)
		if err := rows.Scan(&day, &rec.Hour, &rec.Season, &rec.Weather,
			&rec.Casual, &rec.Registered, &rec.Total); err != nil {
			return nil, fmt.Errorf("scan hourly record: %w", err)
		}
		if rec.Date, err = core.ParseDate(day); err != nil {
			return nil, fmt.Errorf("%w: hourly record: %v", core.ErrMalformedRecord, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hourly records: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
