package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"bikedash/internal/amqp"
	"bikedash/internal/dataset"
	"bikedash/internal/services"
)

// Scheduler enqueues a full-span export on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	snapshots dataset.SnapshotReader
	exports   *services.ExportService
	targets   []string
	timeout   time.Duration
}

// NewScheduler parses spec (standard five-field cron or a descriptor such as
// "@monthly") and prepares the job without starting it.
func NewScheduler(spec string, snapshots dataset.SnapshotReader, exports *services.ExportService, targets ...string) (*Scheduler, error) {
	if len(targets) == 0 {
		targets = []string{amqp.TargetFile}
	}
	s := &Scheduler{
		cron:      cron.New(),
		snapshots: snapshots,
		exports:   exports,
		targets:   targets,
		timeout:   30 * time.Second,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("parse export schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Next returns when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.Enqueue(ctx); err != nil {
		slog.ErrorContext(ctx, "Scheduled export failed", "error", err)
	}
}

// Enqueue requests an export of the whole dataset span and returns its ID.
func (s *Scheduler) Enqueue(ctx context.Context) (string, error) {
	span, ok := s.snapshots.Current().Span()
	if !ok {
		return "", ErrNoSnapshot
	}
	id, err := s.exports.RequestExport(ctx, span, s.targets...)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Scheduled export enqueued",
		"export_id", id,
		"range", span.String())
	return id, nil
}
