package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bikedash/internal/core"
)

// Export targets understood by the worker.
const (
	TargetFile   = "file"
	TargetSheets = "sheets"
)

// ExportRequestMessage asks the worker to export the dashboard for a date range.
// Dates travel as YYYY-MM-DD strings; the worker reads the snapshot itself.
type ExportRequestMessage struct {
	ID        string    `json:"id"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Targets   []string  `json:"targets"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExportRequestMessage creates an export request with a fresh ID.
// An empty target list defaults to a file export.
func NewExportRequestMessage(r core.DateRange, targets ...string) *ExportRequestMessage {
	if len(targets) == 0 {
		targets = []string{TargetFile}
	}
	return &ExportRequestMessage{
		ID:        uuid.NewString(),
		Start:     r.Start.String(),
		End:       r.End.String(),
		Targets:   targets,
		Timestamp: time.Now(),
	}
}

// Range parses and validates the requested date range.
func (m *ExportRequestMessage) Range() (core.DateRange, error) {
	start, err := core.ParseDate(m.Start)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("start: %w", err)
	}
	end, err := core.ParseDate(m.End)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("end: %w", err)
	}
	r := core.DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return r, nil
}

// HasTarget reports whether target was requested.
func (m *ExportRequestMessage) HasTarget(target string) bool {
	for _, t := range m.Targets {
		if t == target {
			return true
		}
	}
	return false
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestMessageFromJSON creates a message from JSON bytes
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("export request without id")
	}
	return &msg, nil
}
