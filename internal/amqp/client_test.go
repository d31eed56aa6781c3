package amqp

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"bikedash/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{64, 30 * time.Second}, // no overflow
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial AMQP: dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{"closed channel", amqp091.ErrClosed, true},
		{"wrapped closed channel", fmt.Errorf("consume: %w", amqp091.ErrClosed), true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("broken pipe"), true},
		{"other error", errors.New("some other error"), false},
		{"declare error", errors.New("declare queue: access refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestExportRequestMessage(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2011, 1, 1), End: core.NewDate(2011, 12, 31)}
	msg := NewExportRequestMessage(r)

	if msg.ID == "" {
		t.Fatal("expected generated id")
	}
	if !msg.HasTarget(TargetFile) || msg.HasTarget(TargetSheets) {
		t.Fatalf("default targets = %v", msg.Targets)
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	if !strings.Contains(string(body), `"start":"2011-01-01"`) {
		t.Fatalf("unexpected body: %s", body)
	}

	decoded, err := ExportRequestMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON error: %v", err)
	}
	got, err := decoded.Range()
	if err != nil {
		t.Fatalf("Range error: %v", err)
	}
	if got != r {
		t.Fatalf("Range() = %v, want %v", got, r)
	}
}

func TestExportRequestMessageInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"not json", `{`, nil},
		{"missing id", `{"start":"2011-01-01","end":"2011-01-02"}`, nil},
		{"inverted range", `{"id":"x","start":"2011-02-01","end":"2011-01-01"}`, core.ErrInvalidRange},
		{"bad date", `{"id":"x","start":"2011-02-31","end":"2011-03-01"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ExportRequestMessageFromJSON([]byte(tt.body))
			if err == nil {
				_, err = msg.Range()
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
