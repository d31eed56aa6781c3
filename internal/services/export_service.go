package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bikedash/internal/amqp"
	"bikedash/internal/core"
)

// ErrExportsDisabled is returned when no message broker is configured.
var ErrExportsDisabled = errors.New("exports disabled: no message broker configured")

// ExportPublisher enqueues export requests for the worker.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error
}

// ExportService validates export requests and hands them to the broker.
type ExportService struct {
	publisher ExportPublisher
}

func NewExportService(publisher ExportPublisher) *ExportService {
	return &ExportService{publisher: publisher}
}

// Enabled reports whether requests can be enqueued.
func (s *ExportService) Enabled() bool {
	return s != nil && s.publisher != nil
}

// RequestExport enqueues an export of r and returns the request ID.
func (s *ExportService) RequestExport(ctx context.Context, r core.DateRange, targets ...string) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	for _, t := range targets {
		if t != amqp.TargetFile && t != amqp.TargetSheets {
			return "", fmt.Errorf("unknown export target %q", t)
		}
	}
	if !s.Enabled() {
		slog.WarnContext(ctx, "AMQP client not available, rejecting export request")
		return "", ErrExportsDisabled
	}

	msg := amqp.NewExportRequestMessage(r, targets...)
	if err := s.publisher.PublishExportRequest(ctx, msg); err != nil {
		return "", fmt.Errorf("publish export request: %w", err)
	}
	return msg.ID, nil
}
