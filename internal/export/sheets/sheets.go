// Package sheets publishes dashboard exports to a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"bikedash/internal/export"
	"bikedash/internal/services"
)

// ValuesWriter is the part of the Sheets API the publisher needs.
type ValuesWriter interface {
	EnsureSheet(ctx context.Context, title string) error
	Clear(ctx context.Context, rng string) error
	Update(ctx context.Context, rng string, values [][]any) error
}

// BreakerConfig controls when the publisher stops calling the API.
type BreakerConfig struct {
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// MinRequests and FailureRatio trip the breaker once both are reached.
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Timeout:      60 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// Publisher writes each export table to its own sheet, named with a prefix.
type Publisher struct {
	writer  ValuesWriter
	prefix  string
	breaker *gobreaker.CircuitBreaker
}

func NewPublisher(writer ValuesWriter, prefix string, cfg BreakerConfig) *Publisher {
	settings := gobreaker.Settings{
		Name:        "google-sheets",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Info("Circuit breaker state changed",
				"component", "sheets",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	}
	return &Publisher{
		writer:  writer,
		prefix:  strings.TrimSpace(prefix),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SheetTitle is the spreadsheet tab that receives table name.
func (p *Publisher) SheetTitle(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + " " + name
}

// Publish replaces the contents of one tab per export table. It stops at the
// first failing table.
func (p *Publisher) Publish(ctx context.Context, d services.Dashboard) error {
	for _, t := range export.Tables(d) {
		if err := ctx.Err(); err != nil {
			return err
		}
		title := p.SheetTitle(t.Name)
		_, err := p.breaker.Execute(func() (interface{}, error) {
			return nil, p.writeTable(ctx, title, t)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("sheets unavailable: %w", err)
		}
		if err != nil {
			return fmt.Errorf("publish sheet %q: %w", title, err)
		}
	}
	return nil
}

// State reports the breaker state, for health output.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}

func (p *Publisher) writeTable(ctx context.Context, title string, t export.Table) error {
	if err := p.writer.EnsureSheet(ctx, title); err != nil {
		return fmt.Errorf("ensure sheet: %w", err)
	}
	if err := p.writer.Clear(ctx, quoteRange(title, "A:Z")); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	values := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	values = append(values, header)
	values = append(values, t.Rows...)

	if err := p.writer.Update(ctx, quoteRange(title, "A1"), values); err != nil {
		return fmt.Errorf("update values: %w", err)
	}
	return nil
}

func quoteRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(title, "'", "''"), cells)
}

// Credentials resolves service-account JSON from inline content or a file.
func Credentials(inlineJSON, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inlineJSON) != "":
		return []byte(inlineJSON), nil
	case strings.TrimSpace(file) != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}
