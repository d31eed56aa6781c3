package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"bikedash/internal/amqp"
	"bikedash/internal/core"
	"bikedash/internal/dataset"
	"bikedash/internal/dataset/memory"
	"bikedash/internal/services"
)

type fakeSheets struct {
	published []services.Dashboard
	err       error
}

func (f *fakeSheets) Publish(ctx context.Context, d services.Dashboard) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, d)
	return nil
}

func loadedHolder(t *testing.T) *dataset.Holder {
	t.Helper()
	store := memory.New(
		[]core.DailyRecord{
			{Date: core.NewDate(2011, 1, 1), Season: 1, Weather: 1, Temp: 0.2, Total: 10, Casual: 4, Registered: 6},
			{Date: core.NewDate(2011, 1, 2), Season: 1, Weather: 2, Temp: 0.3, Total: 20, Casual: 5, Registered: 15, WorkingDay: true},
		},
		[]core.HourlyRecord{{Date: core.NewDate(2011, 1, 1), Hour: 7, Total: 10}},
	)
	h := dataset.NewHolder(store)
	if err := h.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	return h
}

func message(start, end string, targets ...string) *amqp.ExportRequestMessage {
	return &amqp.ExportRequestMessage{ID: "job-1", Start: start, End: end, Targets: targets}
}

func TestExportWorker_WritesWorkbook(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sheets := &fakeSheets{}
	w := NewExportWorker(loadedHolder(t), nil, services.NewDashboardService(0), dir, sheets)

	if err := w.Handle(context.Background(), message("2011-01-01", "2011-01-02", amqp.TargetFile)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	path := filepath.Join(dir, "bikedash_2011-01-01_2011-01-02.xlsx")
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	if rows, _ := f.GetRows("Daily"); len(rows) != 3 {
		t.Errorf("Daily rows = %v", rows)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("export dir should hold only the workbook, got %d entries", len(entries))
	}
	if len(sheets.published) != 0 {
		t.Error("sheets should not be published for a file-only request")
	}
}

func TestExportWorker_PublishesSheets(t *testing.T) {
	dir := t.TempDir()
	sheets := &fakeSheets{}
	w := NewExportWorker(loadedHolder(t), nil, services.NewDashboardService(0), dir, sheets)

	if err := w.Handle(context.Background(), message("2011-01-01", "2011-01-01", amqp.TargetSheets)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sheets.published) != 1 {
		t.Fatalf("published = %d, want 1", len(sheets.published))
	}
	if got := sheets.published[0].Daily.Data.Total; got != 10 {
		t.Errorf("published total = %d, want 10", got)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Error("no workbook expected for a sheets-only request")
	}

	sheets.err = errors.New("quota")
	if err := w.Handle(context.Background(), message("2011-01-01", "2011-01-01", amqp.TargetSheets)); err == nil {
		t.Error("expected sheets failure to be returned for retry")
	}
}

func TestExportWorker_SheetsNotConfigured(t *testing.T) {
	w := NewExportWorker(loadedHolder(t), nil, services.NewDashboardService(0), t.TempDir(), nil)
	if err := w.Handle(context.Background(), message("2011-01-01", "2011-01-02", amqp.TargetSheets)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
}

func TestExportWorker_DropsInvalidRange(t *testing.T) {
	dir := t.TempDir()
	w := NewExportWorker(loadedHolder(t), nil, services.NewDashboardService(0), dir, nil)

	for _, msg := range []*amqp.ExportRequestMessage{
		message("2011-02-01", "2011-01-01", amqp.TargetFile),
		message("yesterday", "2011-01-01", amqp.TargetFile),
	} {
		if err := w.Handle(context.Background(), msg); err != nil {
			t.Errorf("Handle(%s..%s) error = %v, want dropped", msg.Start, msg.End, err)
		}
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Error("no workbook expected for invalid ranges")
	}
}

func TestExportWorker_NoSnapshot(t *testing.T) {
	h := dataset.NewHolder(memory.New(nil, nil))
	w := NewExportWorker(h, nil, services.NewDashboardService(0), t.TempDir(), nil)
	err := w.Handle(context.Background(), message("2011-01-01", "2011-01-02"))
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Handle() error = %v, want ErrNoSnapshot", err)
	}
}

func TestExportWorker_ReloadsBeforeExport(t *testing.T) {
	store := memory.New([]core.DailyRecord{{Date: core.NewDate(2011, 1, 1), Season: 1, Weather: 1, Total: 5}}, nil)
	h := dataset.NewHolder(store)
	if err := h.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	store.Replace([]core.DailyRecord{{Date: core.NewDate(2011, 1, 1), Season: 1, Weather: 1, Total: 50}}, nil)

	sheets := &fakeSheets{}
	w := NewExportWorker(h, h, services.NewDashboardService(0), t.TempDir(), sheets)
	if err := w.Handle(context.Background(), message("2011-01-01", "2011-01-01", amqp.TargetSheets)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := sheets.published[0].Daily.Data.Total; got != 50 {
		t.Errorf("total = %d, want reloaded 50", got)
	}
}
