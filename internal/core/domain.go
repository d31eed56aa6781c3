package core

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-day layout used by the datasets and the HTTP query parameters.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// DailyRecord is one row of the daily dataset.
	DailyRecord struct {
		Date       Date
		Season     int
		Weather    int
		Temp       float64 // normalized temperature, 0..1
		WorkingDay bool
		Casual     int64
		Registered int64
		Total      int64 // casual + registered, assumed not enforced
	}

	// HourlyRecord is one row of the hourly dataset.
	HourlyRecord struct {
		Date       Date
		Hour       int // 0-23
		Season     int
		Weather    int
		Casual     int64
		Registered int64
		Total      int64
	}

	// DateRange is an inclusive range of calendar days.
	DateRange struct {
		Start Date
		End   Date
	}

	// Snapshot holds both tables as loaded from a source. It is never
	// mutated once published; filtered views are new values.
	Snapshot struct {
		Daily    []DailyRecord
		Hourly   []HourlyRecord
		Source   string
		LoadedAt time.Time
		Version  uint64
	}

	// Dated is implemented by every row type that carries a calendar day.
	Dated interface {
		RecordDate() Date
	}
)

var (
	ErrUnrecognizedCategory = errors.New("unrecognized category")
	ErrInvalidRange         = errors.New("invalid range")
	ErrMalformedRecord      = errors.New("malformed record")
	ErrInsufficientData     = errors.New("insufficient data")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrMalformedRecord)
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Normalize returns the same calendar day at midnight UTC. Dates from
// other zones or with a time of day compare and group by calendar day only
// once normalized.
func (d Date) Normalize() Date {
	if d.IsZero() {
		return d
	}
	return NewDate(d.Year(), int(d.Month()), d.Day())
}

// Before reports whether d's calendar day is strictly before o's.
func (d Date) Before(o Date) bool {
	return d.Normalize().Time.Before(o.Normalize().Time)
}

// After reports whether d's calendar day is strictly after o's.
func (d Date) After(o Date) bool {
	return d.Normalize().Time.After(o.Normalize().Time)
}

// YearMonth truncates the date to its calendar month.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

func (r DailyRecord) RecordDate() Date  { return r.Date }
func (r HourlyRecord) RecordDate() Date { return r.Date }

// Validate fails with ErrInvalidRange when Start is after End.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Contains reports whether d falls within the range, both ends included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.String() + "_" + r.End.String()
}

// Span returns the first and last day of the daily table. The boolean is
// false when the table holds no dated rows.
func (s *Snapshot) Span() (DateRange, bool) {
	if s == nil {
		return DateRange{}, false
	}
	var span DateRange
	found := false
	for _, r := range s.Daily {
		if r.Date.IsZero() {
			continue
		}
		if !found || r.Date.Before(span.Start) {
			span.Start = r.Date
		}
		if !found || r.Date.After(span.End) {
			span.End = r.Date
		}
		found = true
	}
	return span, found
}

// IsEmpty reports whether the snapshot holds no rows at all.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.Daily) == 0 && len(s.Hourly) == 0)
}
