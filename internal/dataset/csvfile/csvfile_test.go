package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bikedash/internal/core"
)

func TestLoader_Load(t *testing.T) {
	l := New("testdata", "day.csv", "hour.csv")
	snap, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if len(snap.Daily) != 4 || len(snap.Hourly) != 5 {
		t.Fatalf("rows = %d daily, %d hourly", len(snap.Daily), len(snap.Hourly))
	}

	first := snap.Daily[0]
	want := core.DailyRecord{
		Date:       core.NewDate(2011, 1, 1),
		Season:     1,
		Weather:    2,
		Temp:       0.344167,
		WorkingDay: false,
		Casual:     331,
		Registered: 654,
		Total:      985,
	}
	if first != want {
		t.Fatalf("first daily row = %+v, want %+v", first, want)
	}
	if !snap.Daily[2].WorkingDay {
		t.Fatalf("2011-01-03 should be a working day")
	}

	if h := snap.Hourly[0]; h.Hour != 0 || h.Total != 16 || h.Registered != 13 {
		t.Fatalf("first hourly row = %+v", h)
	}
	if h := snap.Hourly[4]; h.Date != core.NewDate(2011, 1, 2) || h.Hour != 20 || h.Weather != 2 {
		t.Fatalf("last hourly row = %+v", h)
	}

	span, ok := snap.Span()
	if !ok || span.Start != core.NewDate(2011, 1, 1) || span.End != core.NewDate(2011, 1, 4) {
		t.Fatalf("span = %v", span)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	l := New(t.TempDir(), "day.csv", "hour.csv")
	if _, err := l.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want not-exist", err)
	}
}

func TestReadDaily_Malformed(t *testing.T) {
	header := "dteday,season,weathersit,temp,workingday,casual,registered,cnt\n"
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "missing column",
			body:    "dteday,season,cnt\n2011-01-01,1,5\n",
			wantMsg: "missing columns weathersit",
		},
		{
			name:    "bad date",
			body:    header + "2011-01-01,1,1,0.2,1,1,1,2\n01/02/2011,1,1,0.2,1,1,1,2\n",
			wantMsg: `line 3 column "dteday"`,
		},
		{
			name:    "non-numeric count",
			body:    header + "2011-01-01,1,1,0.2,1,1,1,many\n",
			wantMsg: `column "cnt"`,
		},
		{
			name:    "negative count",
			body:    header + "2011-01-01,1,1,0.2,1,-1,1,2\n",
			wantMsg: "negative count",
		},
		{
			name:    "bad flag",
			body:    header + "2011-01-01,1,1,0.2,yes,1,1,2\n",
			wantMsg: `column "workingday"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDaily(strings.NewReader(tt.body), "day.csv")
			if !errors.Is(err, core.ErrMalformedRecord) {
				t.Fatalf("error = %v, want ErrMalformedRecord", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestReadHourly_HourOutOfRange(t *testing.T) {
	body := "dteday,hr,cnt\n2011-01-01,24,3\n"
	_, err := ReadHourly(strings.NewReader(body), "hour.csv")
	if !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("error = %v", err)
	}
}

func TestReadHourly_OptionalColumns(t *testing.T) {
	body := "dteday,hr,cnt\n2011-01-02,5,3\n2011-01-01,23,4\n"
	rows, err := ReadHourly(strings.NewReader(body), "hour.csv")
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(rows) != 2 || rows[0].Date != core.NewDate(2011, 1, 1) || rows[0].Season != 0 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestLoader_Files(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, "d.csv", "h.csv")
	files := l.Files()
	if files[0] != filepath.Join(dir, "d.csv") || files[1] != filepath.Join(dir, "h.csv") {
		t.Fatalf("Files() = %v", files)
	}
}
