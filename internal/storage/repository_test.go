package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bikedash/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "bikedash.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepository_EmptyDatabase(t *testing.T) {
	repo, path := newTestRepo(t)

	if _, err := repo.Load(context.Background()); !errors.Is(err, ErrNoImport) {
		t.Fatalf("Load error = %v, want ErrNoImport", err)
	}

	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 2 || dirty {
		t.Fatalf("schema version = %d dirty=%v", version, dirty)
	}
}

func TestSQLiteRepository_ImportAndLoad(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	snap := &core.Snapshot{
		Source: "testdata",
		Daily: []core.DailyRecord{
			{Date: core.NewDate(2011, 1, 2), Season: 1, Weather: 2, Temp: 0.36, Casual: 131, Registered: 670, Total: 801},
			{Date: core.NewDate(2011, 1, 1), Season: 1, Weather: 2, Temp: 0.34, WorkingDay: true, Casual: 331, Registered: 654, Total: 985},
		},
		Hourly: []core.HourlyRecord{
			{Date: core.NewDate(2011, 1, 1), Hour: 5, Total: 3},
			{Date: core.NewDate(2011, 1, 1), Hour: 0, Season: 1, Weather: 1, Casual: 3, Registered: 13, Total: 16},
		},
	}
	if err := repo.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Daily) != 2 || len(got.Hourly) != 2 {
		t.Fatalf("rows = %d/%d", len(got.Daily), len(got.Hourly))
	}
	if got.Daily[0] != snap.Daily[1] {
		t.Fatalf("daily[0] = %+v, want %+v", got.Daily[0], snap.Daily[1])
	}
	if got.Hourly[0] != snap.Hourly[1] {
		t.Fatalf("hourly[0] = %+v, want %+v", got.Hourly[0], snap.Hourly[1])
	}
	if got.Source != "sqlite:testdata" || got.LoadedAt.IsZero() {
		t.Fatalf("metadata = %q %v", got.Source, got.LoadedAt)
	}

	// A second import replaces the first.
	snap2 := &core.Snapshot{Source: "second", Daily: snap.Daily[:1]}
	if err := repo.ImportSnapshot(ctx, snap2); err != nil {
		t.Fatalf("second import: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Daily) != 1 || len(got.Hourly) != 0 {
		t.Fatalf("rows after replace = %d/%d", len(got.Daily), len(got.Hourly))
	}

	info, err := repo.LastImport(ctx)
	if err != nil || info.Source != "second" || info.DailyRows != 1 {
		t.Fatalf("LastImport = %+v, %v", info, err)
	}

	// Reopening runs migrations again without error.
	repo.Close()
	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
}

func TestSQLiteRepository_ImportRollsBack(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	good := &core.Snapshot{Source: "good", Daily: []core.DailyRecord{{Date: core.NewDate(2011, 1, 1), Total: 1}}}
	if err := repo.ImportSnapshot(ctx, good); err != nil {
		t.Fatalf("import: %v", err)
	}

	bad := &core.Snapshot{Source: "bad", Daily: []core.DailyRecord{{Date: core.NewDate(2011, 1, 1)}, {Total: 2}}}
	if err := repo.ImportSnapshot(ctx, bad); !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("import error = %v, want ErrMalformedRecord", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Source != "sqlite:good" || len(got.Daily) != 1 || got.Daily[0].Total != 1 {
		t.Fatalf("failed import was not rolled back: %+v", got)
	}
}
