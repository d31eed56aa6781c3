package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bikedash/internal/amqp"
	"bikedash/internal/core"
	"bikedash/internal/dataset"
	"bikedash/internal/export"
	"bikedash/internal/export/excel"
	"bikedash/internal/services"
)

// ErrNoSnapshot is returned when a job arrives before any dataset is loaded.
var ErrNoSnapshot = errors.New("no dataset snapshot loaded")

// SheetsPublisher writes a dashboard to a spreadsheet.
type SheetsPublisher interface {
	Publish(ctx context.Context, d services.Dashboard) error
}

// ExportWorker turns export requests into workbook files and spreadsheet tabs.
type ExportWorker struct {
	snapshots  dataset.SnapshotReader
	reloader   dataset.Reloader
	dashboards *services.DashboardService
	exportDir  string
	sheets     SheetsPublisher
}

// NewExportWorker creates a worker. reloader and sheets may be nil.
func NewExportWorker(snapshots dataset.SnapshotReader, reloader dataset.Reloader, dashboards *services.DashboardService, exportDir string, sheets SheetsPublisher) *ExportWorker {
	return &ExportWorker{
		snapshots:  snapshots,
		reloader:   reloader,
		dashboards: dashboards,
		exportDir:  exportDir,
		sheets:     sheets,
	}
}

// Handle processes one export request. Requests with an unusable range are
// logged and dropped; other failures are returned so the broker can retry.
func (w *ExportWorker) Handle(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	slog.InfoContext(ctx, "Processing export request",
		"export_id", msg.ID,
		"start", msg.Start,
		"end", msg.End,
		"targets", msg.Targets)

	r, err := msg.Range()
	if err != nil {
		slog.ErrorContext(ctx, "Dropping export request with invalid range",
			"export_id", msg.ID,
			"error", err)
		return nil
	}

	if w.reloader != nil {
		if err := w.reloader.Reload(ctx); err != nil {
			slog.WarnContext(ctx, "Reload before export failed, using current snapshot",
				"export_id", msg.ID,
				"error", err)
		}
	}

	snap := w.snapshots.Current()
	if snap == nil {
		return ErrNoSnapshot
	}

	d, err := w.dashboards.Build(ctx, snap, r)
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	if msg.HasTarget(amqp.TargetFile) {
		path, err := w.writeWorkbook(d, r)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "Export workbook written",
			"export_id", msg.ID,
			"file", path,
			"snapshot_version", d.Version)
	}

	if msg.HasTarget(amqp.TargetSheets) {
		if w.sheets == nil {
			slog.WarnContext(ctx, "Google Sheets export requested but not configured, skipping",
				"export_id", msg.ID)
		} else {
			if err := w.sheets.Publish(ctx, d); err != nil {
				return fmt.Errorf("publish to sheets: %w", err)
			}
			slog.InfoContext(ctx, "Export published to Google Sheets", "export_id", msg.ID)
		}
	}

	return nil
}

// writeWorkbook writes the workbook next to its final name and renames it
// into place, so readers never see a partial file.
func (w *ExportWorker) writeWorkbook(d services.Dashboard, r core.DateRange) (string, error) {
	data, err := excel.Workbook(d)
	if err != nil {
		return "", fmt.Errorf("render workbook: %w", err)
	}

	if err := os.MkdirAll(w.exportDir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.exportDir, ".bikedash-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(w.exportDir, export.FileName(r))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move workbook into place: %w", err)
	}
	return path, nil
}
