package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// GoogleWriter implements ValuesWriter against the Sheets v4 API.
type GoogleWriter struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu     sync.Mutex
	titles map[string]bool
}

// NewGoogleWriter creates a Sheets service from service-account credentials.
func NewGoogleWriter(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*GoogleWriter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleWriter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// EnsureSheet adds a tab named title unless the spreadsheet already has one.
func (w *GoogleWriter) EnsureSheet(ctx context.Context, title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.titles == nil {
		ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("get spreadsheet: %w", err)
		}
		w.titles = make(map[string]bool, len(ss.Sheets))
		for _, s := range ss.Sheets {
			if s.Properties != nil {
				w.titles[s.Properties.Title] = true
			}
		}
	}
	if w.titles[title] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	w.titles[title] = true
	return nil
}

func (w *GoogleWriter) Clear(ctx context.Context, rng string) error {
	_, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (w *GoogleWriter) Update(ctx context.Context, rng string, values [][]any) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}
