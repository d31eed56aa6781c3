package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentDataset, Output: &buf})

	logger.Info("loaded", FieldDailyRows, 731)
	logger.WithComponent(ComponentWatch).Debug("event")

	out := buf.String()
	if !strings.Contains(out, "component=dataset") || !strings.Contains(out, "daily_rows=731") {
		t.Errorf("missing dataset fields in %q", out)
	}
	if !strings.Contains(out, "component=watch") {
		t.Errorf("missing watch component in %q", out)
	}
	if logger.Component() != ComponentDataset {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record missing")
	}
}

func TestMiddlewareAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	h := Middleware(logger, func(*http.Request) string { return "req_abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_abc") {
		t.Errorf("request id missing from %q", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("FromContext fallback = %+v", l)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf}))
	ctx := context.Background()
	r := httptest.NewRequest(http.MethodGet, "/ui/daily?start=2011-01-01", nil)

	sl.LogHTTPEnd(ctx, r, "req_1", http.StatusBadRequest, 3, "127.0.0.1")
	sl.LogSnapshotLoaded(ctx, "csv:data", 2, 731, 17379)
	sl.LogError(ctx, "export failed", errors.New("disk full"), OpExport, nil)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=400", "snapshot_version=2", "error=\"disk full\"", "operation=export"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
