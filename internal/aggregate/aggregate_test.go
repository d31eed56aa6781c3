package aggregate

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"bikedash/internal/core"
)

func day(y, m, d int) core.Date { return core.NewDate(y, m, d) }

func TestBySeason(t *testing.T) {
	daily := []core.DailyRecord{
		{Date: day(2011, 1, 1), Season: 1, Total: 10},
		{Date: day(2011, 1, 2), Season: 1, Total: 20},
		{Date: day(2011, 4, 1), Season: 2, Total: 5},
		{Date: day(2011, 12, 1), Season: 4, Total: 7},
	}
	got, err := BySeason(daily)
	if err != nil {
		t.Fatalf("BySeason error: %v", err)
	}
	want := []core.LabeledTotal{
		{Label: "Springer", Total: 30},
		{Label: "Summer", Total: 5},
		{Label: "Winter", Total: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BySeason = %+v, want %+v", got, want)
	}
}

func TestRelabelErrors(t *testing.T) {
	tests := []struct {
		name    string
		daily   []core.DailyRecord
		wantErr error
	}{
		{
			name:    "unknown weather code",
			daily:   []core.DailyRecord{{Date: day(2011, 1, 1), Weather: 1}, {Date: day(2011, 1, 2), Weather: 4}},
			wantErr: core.ErrUnrecognizedCategory,
		},
		{
			name:    "zero date",
			daily:   []core.DailyRecord{{Weather: 1}},
			wantErr: core.ErrMalformedRecord,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ByWeather(tt.daily)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ByWeather error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRelabelPreservesMassAndOrder(t *testing.T) {
	daily := []core.DailyRecord{
		{Date: day(2011, 1, 1), Weather: 3, Total: 4},
		{Date: day(2011, 1, 2), Weather: 1, Total: 9},
		{Date: day(2011, 1, 3), Weather: 2, Total: 2},
		{Date: day(2011, 1, 4), Weather: 1, Total: 1},
	}
	got, err := ByWeather(daily)
	if err != nil {
		t.Fatalf("ByWeather error: %v", err)
	}
	labels := []string{}
	var sum int64
	for _, r := range got {
		labels = append(labels, r.Label)
		sum += r.Total
	}
	if !reflect.DeepEqual(labels, []string{"Clear", "Mist", "Snow/Rain"}) {
		t.Fatalf("labels out of code order: %v", labels)
	}
	if sum != 16 {
		t.Fatalf("mass not preserved: %d", sum)
	}

	again, _ := ByWeather(daily)
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("ByWeather not idempotent")
	}
}

func TestHourBucket(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "Early Morning"},
		{5, "Early Morning"},
		{6, "Morning"},
		{11, "Morning"},
		{12, "Noon"},
		{14, "Noon"},
		{15, "Afternoon"},
		{18, "Afternoon"},
		{19, "Night"},
		{23, "Night"},
	}
	for _, tt := range tests {
		got, err := HourBucket(tt.hour)
		if err != nil {
			t.Fatalf("HourBucket(%d) error: %v", tt.hour, err)
		}
		if got != tt.want {
			t.Errorf("HourBucket(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}

	for _, bad := range []int{-1, 24, 100} {
		if _, err := HourBucket(bad); !errors.Is(err, core.ErrMalformedRecord) {
			t.Errorf("HourBucket(%d) error = %v, want ErrMalformedRecord", bad, err)
		}
	}
}

func TestHourBucketIsExhaustive(t *testing.T) {
	seen := map[string]int{}
	for h := 0; h < 24; h++ {
		label, err := HourBucket(h)
		if err != nil {
			t.Fatalf("hour %d not bucketed: %v", h, err)
		}
		seen[label]++
	}
	want := map[string]int{"Early Morning": 6, "Morning": 6, "Noon": 3, "Afternoon": 4, "Night": 5}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("bucket sizes = %v, want %v", seen, want)
	}
}

func TestByHourGroup(t *testing.T) {
	var hourly []core.HourlyRecord
	for _, h := range []int{0, 5, 6, 11, 12, 14, 15, 18, 19, 23} {
		hourly = append(hourly, core.HourlyRecord{Date: day(2011, 1, 1), Hour: h, Total: 1})
	}
	got, err := ByHourGroup(hourly)
	if err != nil {
		t.Fatalf("ByHourGroup error: %v", err)
	}
	want := []core.LabeledTotal{
		{Label: "Early Morning", Total: 2},
		{Label: "Morning", Total: 2},
		{Label: "Noon", Total: 2},
		{Label: "Afternoon", Total: 2},
		{Label: "Night", Total: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ByHourGroup = %+v, want %+v", got, want)
	}

	t.Run("missing buckets are zero", func(t *testing.T) {
		got, err := ByHourGroup([]core.HourlyRecord{{Date: day(2011, 1, 1), Hour: 8, Total: 3}})
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if len(got) != 5 || got[1].Total != 3 || got[0].Total != 0 {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := ByHourGroup(nil)
		if err != nil || len(got) != 0 {
			t.Fatalf("got %+v, %v", got, err)
		}
	})

	t.Run("hour out of range", func(t *testing.T) {
		_, err := ByHourGroup([]core.HourlyRecord{{Date: day(2011, 1, 1), Hour: 24}})
		if !errors.Is(err, core.ErrMalformedRecord) {
			t.Fatalf("error = %v", err)
		}
	})
}

func TestResampleDaily(t *testing.T) {
	daily := []core.DailyRecord{
		{Date: day(2011, 1, 3), Total: 5, Casual: 2, Registered: 3},
		{Date: day(2011, 1, 1), Total: 10, Casual: 4, Registered: 6, WorkingDay: true},
		{Date: day(2011, 1, 1), Total: 1, Casual: 1},
	}
	got, err := ResampleDaily(daily)
	if err != nil {
		t.Fatalf("ResampleDaily error: %v", err)
	}
	want := []core.DailyAggregate{
		{Date: day(2011, 1, 1), Total: 11, Casual: 5, Registered: 6, WorkingDays: 1},
		{Date: day(2011, 1, 2)},
		{Date: day(2011, 1, 3), Total: 5, Casual: 2, Registered: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResampleDaily = %+v, want %+v", got, want)
	}

	var in, out int64
	for _, r := range daily {
		in += r.Total
	}
	out = TotalRentals(got)
	if in != out {
		t.Fatalf("mass not preserved: in=%d out=%d", in, out)
	}

	if daily[0].Date != day(2011, 1, 3) {
		t.Fatalf("input was reordered")
	}

	empty, err := ResampleDaily(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: %+v, %v", empty, err)
	}
}

func TestByMonth(t *testing.T) {
	daily := []core.DailyRecord{
		{Date: day(2012, 1, 15), Total: 7},
		{Date: day(2011, 1, 1), Total: 1},
		{Date: day(2011, 1, 31), Total: 2},
		{Date: day(2011, 3, 1), Total: 4},
	}
	got, err := ByMonth(daily)
	if err != nil {
		t.Fatalf("ByMonth error: %v", err)
	}
	want := []core.MonthTotal{
		{Period: core.YearMonth{Year: 2011, Month: time.January}, Total: 3},
		{Period: core.YearMonth{Year: 2011, Month: time.March}, Total: 4},
		{Period: core.YearMonth{Year: 2012, Month: time.January}, Total: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ByMonth = %+v, want %+v", got, want)
	}
}

func TestTopAndBottomMonths(t *testing.T) {
	months := []core.MonthTotal{
		{Period: core.YearMonth{Year: 2011, Month: time.January}, Total: 5},
		{Period: core.YearMonth{Year: 2011, Month: time.February}, Total: 9},
		{Period: core.YearMonth{Year: 2011, Month: time.March}, Total: 5},
		{Period: core.YearMonth{Year: 2011, Month: time.April}, Total: 1},
	}

	top := TopMonths(months, 3)
	if len(top) != 3 || top[0].Total != 9 || top[1].Period.Month != time.January || top[2].Period.Month != time.March {
		t.Fatalf("TopMonths = %+v", top)
	}
	bottom := BottomMonths(months, 2)
	if len(bottom) != 2 || bottom[0].Total != 1 || bottom[1].Period.Month != time.January {
		t.Fatalf("BottomMonths = %+v", bottom)
	}
	if got := TopMonths(months, 10); len(got) != 4 {
		t.Fatalf("TopMonths over length = %d rows", len(got))
	}
	if got := TopMonths(months, 0); len(got) != 0 {
		t.Fatalf("TopMonths(0) = %+v", got)
	}
	if months[0].Total != 5 || months[1].Total != 9 {
		t.Fatalf("input was reordered")
	}
}

func TestFilterRange(t *testing.T) {
	daily := []core.DailyRecord{
		{Date: day(2011, 1, 1)},
		{Date: day(2011, 1, 2)},
		{Date: day(2011, 1, 3)},
		{Date: day(2011, 1, 4)},
	}

	tests := []struct {
		name    string
		r       core.DateRange
		want    int
		wantErr error
	}{
		{"inclusive ends", core.DateRange{Start: day(2011, 1, 2), End: day(2011, 1, 3)}, 2, nil},
		{"single day", core.DateRange{Start: day(2011, 1, 4), End: day(2011, 1, 4)}, 1, nil},
		{"outside data", core.DateRange{Start: day(2012, 1, 1), End: day(2012, 2, 1)}, 0, nil},
		{"covers all", core.DateRange{Start: day(2010, 1, 1), End: day(2013, 1, 1)}, 4, nil},
		{"inverted", core.DateRange{Start: day(2011, 1, 3), End: day(2011, 1, 2)}, 0, core.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterRange(daily, tt.r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d rows, want %d", len(got), tt.want)
			}
			for _, r := range got {
				if !tt.r.Contains(r.Date) {
					t.Fatalf("row %s outside range %s", r.Date, tt.r)
				}
			}
		})
	}
}

func TestFilterSnapshot(t *testing.T) {
	snap := &core.Snapshot{
		Daily:   []core.DailyRecord{{Date: day(2011, 1, 1)}, {Date: day(2011, 1, 5)}},
		Hourly:  []core.HourlyRecord{{Date: day(2011, 1, 1), Hour: 3}, {Date: day(2011, 1, 5), Hour: 4}},
		Source:  "test",
		Version: 7,
	}
	got, err := FilterSnapshot(snap, core.DateRange{Start: day(2011, 1, 2), End: day(2011, 1, 5)})
	if err != nil {
		t.Fatalf("FilterSnapshot error: %v", err)
	}
	if len(got.Daily) != 1 || len(got.Hourly) != 1 || got.Version != 7 || got.Source != "test" {
		t.Fatalf("got %+v", got)
	}
	if len(snap.Daily) != 2 {
		t.Fatalf("original snapshot modified")
	}
}

func TestSplitsAndShares(t *testing.T) {
	days := []core.DailyAggregate{
		{Total: 10, Casual: 3, Registered: 7, WorkingDays: 1},
		{Total: 6, Casual: 2, Registered: 4},
	}
	if got := WorkingDaySplit(days); got != (core.WorkingDaySplit{Working: 10, NonWorking: 6}) {
		t.Fatalf("WorkingDaySplit = %+v", got)
	}
	if got := RiderSplit(days); got != (core.RiderSplit{Casual: 5, Registered: 11}) {
		t.Fatalf("RiderSplit = %+v", got)
	}
	working, nonWorking := WorkingDaySeries(days)
	if len(working) != 1 || len(nonWorking) != 1 {
		t.Fatalf("WorkingDaySeries = %d/%d", len(working), len(nonWorking))
	}

	shares := Shares([]core.LabeledTotal{{Label: "Clear", Total: 3}, {Label: "Mist", Total: 1}})
	if shares[0].Percent != 75 || shares[1].Percent != 25 {
		t.Fatalf("Shares = %+v", shares)
	}
	zero := Shares([]core.LabeledTotal{{Label: "Clear"}})
	if zero[0].Percent != 0 {
		t.Fatalf("zero total share = %v", zero[0].Percent)
	}
}

func TestTempCorrelation(t *testing.T) {
	daily := []core.DailyRecord{
		{Date: day(2011, 1, 1), Temp: 0.1, Total: 100},
		{Date: day(2011, 1, 2), Temp: 0.2, Total: 200},
		{Date: day(2011, 1, 3), Temp: 0.3, Total: 300},
	}
	corr, err := TempCorrelation(daily)
	if err != nil {
		t.Fatalf("TempCorrelation error: %v", err)
	}
	if math.Abs(corr-1) > 1e-9 {
		t.Fatalf("correlation = %v, want 1", corr)
	}

	tests := []struct {
		name  string
		daily []core.DailyRecord
	}{
		{"single day", daily[:1]},
		{"constant temperature", []core.DailyRecord{
			{Date: day(2011, 1, 1), Temp: 0.5, Total: 1},
			{Date: day(2011, 1, 2), Temp: 0.5, Total: 2},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TempCorrelation(tt.daily); !errors.Is(err, core.ErrInsufficientData) {
				t.Fatalf("error = %v, want ErrInsufficientData", err)
			}
		})
	}
}

func TestResampleDailyMixedZones(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	daily := []core.DailyRecord{
		{Date: day(2011, 1, 1), Total: 10},
		{Date: core.Date{Time: time.Date(2011, 1, 2, 0, 0, 0, 0, est)}, Total: 7, WorkingDay: true},
		{Date: core.Date{Time: time.Date(2011, 1, 3, 18, 30, 0, 0, time.UTC)}, Total: 5},
	}
	got, err := ResampleDaily(daily)
	if err != nil {
		t.Fatalf("ResampleDaily error: %v", err)
	}
	want := []core.DailyAggregate{
		{Date: day(2011, 1, 1), Total: 10},
		{Date: day(2011, 1, 2), Total: 7, WorkingDays: 1},
		{Date: day(2011, 1, 3), Total: 5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResampleDaily = %+v, want %+v", got, want)
	}
	if total := TotalRentals(got); total != 22 {
		t.Fatalf("total = %d, want 22", total)
	}

	kept, err := FilterRange(daily, core.DateRange{Start: day(2011, 1, 2), End: day(2011, 1, 2)})
	if err != nil {
		t.Fatalf("FilterRange error: %v", err)
	}
	if len(kept) != 1 || kept[0].Total != 7 {
		t.Fatalf("FilterRange kept %+v, want the 2011-01-02 row", kept)
	}
}

func TestBySeasonErrors(t *testing.T) {
	tests := []struct {
		name    string
		daily   []core.DailyRecord
		wantErr error
	}{
		{
			name:    "unknown season code",
			daily:   []core.DailyRecord{{Date: day(2011, 1, 1), Season: 1}, {Date: day(2011, 1, 2), Season: 5}},
			wantErr: core.ErrUnrecognizedCategory,
		},
		{
			name:    "season zero",
			daily:   []core.DailyRecord{{Date: day(2011, 1, 1), Season: 0}},
			wantErr: core.ErrUnrecognizedCategory,
		},
		{
			name:    "zero date",
			daily:   []core.DailyRecord{{Season: 1}},
			wantErr: core.ErrMalformedRecord,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BySeason(tt.daily)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("BySeason error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Fatalf("BySeason returned %+v alongside an error", got)
			}
		})
	}
}

func TestAggregationsIdempotent(t *testing.T) {
	daily := []core.DailyRecord{
		{Date: day(2011, 2, 3), Season: 1, Weather: 2, Temp: 0.3, Casual: 3, Registered: 9, Total: 12, WorkingDay: true},
		{Date: day(2011, 1, 1), Season: 1, Weather: 1, Temp: 0.2, Casual: 5, Registered: 5, Total: 10},
		{Date: day(2011, 4, 9), Season: 2, Weather: 3, Temp: 0.6, Casual: 1, Registered: 20, Total: 21, WorkingDay: true},
		{Date: day(2011, 1, 5), Season: 1, Weather: 1, Temp: 0.1, Casual: 2, Registered: 4, Total: 6, WorkingDay: true},
	}
	hourly := []core.HourlyRecord{
		{Date: day(2011, 1, 1), Hour: 3, Total: 2},
		{Date: day(2011, 1, 1), Hour: 8, Total: 7},
		{Date: day(2011, 1, 1), Hour: 20, Total: 4},
	}
	days, err := ResampleDaily(daily)
	if err != nil {
		t.Fatalf("ResampleDaily error: %v", err)
	}
	months, err := ByMonth(daily)
	if err != nil {
		t.Fatalf("ByMonth error: %v", err)
	}

	tests := []struct {
		name string
		run  func() (any, error)
	}{
		{"ByWeather", func() (any, error) { return ByWeather(daily) }},
		{"BySeason", func() (any, error) { return BySeason(daily) }},
		{"ByHourGroup", func() (any, error) { return ByHourGroup(hourly) }},
		{"ResampleDaily", func() (any, error) { return ResampleDaily(daily) }},
		{"ByMonth", func() (any, error) { return ByMonth(daily) }},
		{"TopMonths", func() (any, error) { return TopMonths(months, 2), nil }},
		{"BottomMonths", func() (any, error) { return BottomMonths(months, 2), nil }},
		{"FilterRange", func() (any, error) {
			return FilterRange(daily, core.DateRange{Start: day(2011, 1, 1), End: day(2011, 2, 28)})
		}},
		{"TempScatter", func() (any, error) { return TempScatter(daily) }},
		{"TempCorrelation", func() (any, error) { return TempCorrelation(daily) }},
		{"TotalRentals", func() (any, error) { return TotalRentals(days), nil }},
		{"WorkingDaySplit", func() (any, error) { return WorkingDaySplit(days), nil }},
		{"RiderSplit", func() (any, error) { return RiderSplit(days), nil }},
		{"Shares", func() (any, error) {
			rows, err := ByWeather(daily)
			if err != nil {
				return nil, err
			}
			return Shares(rows), nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := tt.run()
			if err != nil {
				t.Fatalf("first call: %v", err)
			}
			second, err := tt.run()
			if err != nil {
				t.Fatalf("second call: %v", err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("results differ:\nfirst:  %+v\nsecond: %+v", first, second)
			}
		})
	}
}
