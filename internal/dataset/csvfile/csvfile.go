// Package csvfile loads the daily and hourly tables from CSV files.
package csvfile

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikedash/internal/core"
)

// Column names of the bike-sharing CSV files.
const (
	ColDate       = "dteday"
	ColSeason     = "season"
	ColWeather    = "weathersit"
	ColTemp       = "temp"
	ColWorkingDay = "workingday"
	ColHour       = "hr"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColTotal      = "cnt"
)

var (
	dailyColumns  = []string{ColDate, ColSeason, ColWeather, ColTemp, ColWorkingDay, ColCasual, ColRegistered, ColTotal}
	hourlyColumns = []string{ColDate, ColHour, ColTotal}
)

// Loader reads day and hour CSV files from disk on every Load.
type Loader struct {
	dayPath  string
	hourPath string
}

func New(dir, dayFile, hourFile string) *Loader {
	return &Loader{
		dayPath:  filepath.Join(dir, dayFile),
		hourPath: filepath.Join(dir, hourFile),
	}
}

// Files returns the paths read by the loader.
func (l *Loader) Files() []string {
	return []string{l.dayPath, l.hourPath}
}

func (l *Loader) Load(ctx context.Context) (*core.Snapshot, error) {
	daily, err := readFile(ctx, l.dayPath, ReadDaily)
	if err != nil {
		return nil, err
	}
	hourly, err := readFile(ctx, l.hourPath, ReadHourly)
	if err != nil {
		return nil, err
	}
	return &core.Snapshot{
		Daily:    daily,
		Hourly:   hourly,
		Source:   "csv:" + filepath.Dir(l.dayPath),
		LoadedAt: time.Now(),
	}, nil
}

func readFile[T any](ctx context.Context, path string, read func(io.Reader, string) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return read(f, filepath.Base(path))
}

// ReadDaily parses the daily table. name identifies the source in errors.
func ReadDaily(r io.Reader, name string) ([]core.DailyRecord, error) {
	t, err := readTable(r, name, dailyColumns)
	if err != nil {
		return nil, err
	}

	out := make([]core.DailyRecord, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		var rec core.DailyRecord
		p := t.row(i)
		rec.Date = p.dateCell(ColDate)
		rec.Season = p.intCell(ColSeason)
		rec.Weather = p.intCell(ColWeather)
		rec.Temp = p.floatCell(ColTemp)
		rec.WorkingDay = p.boolCell(ColWorkingDay)
		rec.Casual = p.countCell(ColCasual)
		rec.Registered = p.countCell(ColRegistered)
		rec.Total = p.countCell(ColTotal)
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, rec)
	}

	slices.SortStableFunc(out, func(a, b core.DailyRecord) int {
		return a.Date.Compare(b.Date.Time)
	})
	return out, nil
}

// ReadHourly parses the hourly table. Season, weather and rider columns
// are read when present.
func ReadHourly(r io.Reader, name string) ([]core.HourlyRecord, error) {
	t, err := readTable(r, name, hourlyColumns)
	if err != nil {
		return nil, err
	}

	out := make([]core.HourlyRecord, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		var rec core.HourlyRecord
		p := t.row(i)
		rec.Date = p.dateCell(ColDate)
		rec.Hour = p.intCell(ColHour)
		rec.Total = p.countCell(ColTotal)
		if t.has(ColSeason) {
			rec.Season = p.intCell(ColSeason)
		}
		if t.has(ColWeather) {
			rec.Weather = p.intCell(ColWeather)
		}
		if t.has(ColCasual) {
			rec.Casual = p.countCell(ColCasual)
		}
		if t.has(ColRegistered) {
			rec.Registered = p.countCell(ColRegistered)
		}
		if p.err == nil && (rec.Hour < 0 || rec.Hour > 23) {
			p.fail(ColHour, fmt.Errorf("hour %d outside 0-23", rec.Hour))
		}
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, rec)
	}

	slices.SortStableFunc(out, func(a, b core.HourlyRecord) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Hour, b.Hour)
	})
	return out, nil
}

// table is a CSV file read as string columns.
type table struct {
	name string
	rows int
	cols map[string][]string
}

func readTable(r io.Reader, name string, required []string) (*table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrMalformedRecord, name, df.Err)
	}

	t := &table{name: name, rows: df.Nrow(), cols: make(map[string][]string)}
	for _, col := range df.Names() {
		t.cols[strings.TrimSpace(col)] = df.Col(col).Records()
	}

	var missing []string
	for _, col := range required {
		if !t.has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing columns %s", core.ErrMalformedRecord, name, strings.Join(missing, ", "))
	}
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

func (t *table) row(i int) *rowParser {
	return &rowParser{t: t, i: i}
}

// rowParser converts the cells of one row, keeping the first error.
type rowParser struct {
	t   *table
	i   int
	err error
}

func (p *rowParser) cell(col string) string {
	return strings.TrimSpace(p.t.cols[col][p.i])
}

func (p *rowParser) fail(col string, err error) {
	if p.err == nil {
		// Line numbers count the header as line 1.
		p.err = fmt.Errorf("%w: %s line %d column %q: %v", core.ErrMalformedRecord, p.t.name, p.i+2, col, err)
	}
}

func (p *rowParser) dateCell(col string) core.Date {
	d, err := core.ParseDate(p.cell(col))
	if err != nil {
		p.fail(col, err)
	}
	return d
}

func (p *rowParser) intCell(col string) int {
	v, err := strconv.Atoi(p.cell(col))
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) countCell(col string) int64 {
	v, err := strconv.ParseInt(p.cell(col), 10, 64)
	if err != nil {
		p.fail(col, err)
	} else if v < 0 {
		p.fail(col, fmt.Errorf("negative count %d", v))
	}
	return v
}

func (p *rowParser) floatCell(col string) float64 {
	v, err := strconv.ParseFloat(p.cell(col), 64)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) boolCell(col string) bool {
	v, err := strconv.ParseBool(p.cell(col))
	if err != nil {
		p.fail(col, err)
	}
	return v
}
