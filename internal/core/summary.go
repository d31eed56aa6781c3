package core

import (
	"cmp"
	"fmt"
	"time"
)

// Labels maps a categorical code to its display label.
type Labels map[int]string

// SeasonLabels and WeatherLabels are the dataset's category encodings.
var (
	SeasonLabels = Labels{
		1: "Springer",
		2: "Summer",
		3: "Fall",
		4: "Winter",
	}

	WeatherLabels = Labels{
		1: "Clear",
		2: "Mist",
		3: "Snow/Rain",
	}
)

// Hour-of-day bucket labels, in day order.
const (
	HourGroupEarlyMorning = "Early Morning"
	HourGroupMorning      = "Morning"
	HourGroupNoon         = "Noon"
	HourGroupAfternoon    = "Afternoon"
	HourGroupNight        = "Night"
)

// HourGroups lists the bucket labels in day order.
var HourGroups = []string{
	HourGroupEarlyMorning,
	HourGroupMorning,
	HourGroupNoon,
	HourGroupAfternoon,
	HourGroupNight,
}

// LabeledTotal is one row of a season, weather or hour-group summary.
type LabeledTotal struct {
	Label string
	Total int64
}

// LabeledShare is a LabeledTotal with its percentage of the grand total.
type LabeledShare struct {
	Label   string
	Total   int64
	Percent float64
}

// DailyAggregate is one resampled calendar day.
type DailyAggregate struct {
	Date        Date
	Total       int64
	Casual      int64
	Registered  int64
	WorkingDays int64
}

// YearMonth is a calendar month, ordered chronologically.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Compare returns -1, 0 or +1 comparing ym to o chronologically.
func (ym YearMonth) Compare(o YearMonth) int {
	if c := cmp.Compare(ym.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(ym.Month, o.Month)
}

func (ym YearMonth) Before(o YearMonth) bool {
	return ym.Compare(o) < 0
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MonthTotal is the rental total for one calendar month.
type MonthTotal struct {
	Period YearMonth
	Total  int64
}

// WorkingDaySplit separates the rental total by working and non-working days.
type WorkingDaySplit struct {
	Working    int64
	NonWorking int64
}

// RiderSplit separates the rental total by rider type.
type RiderSplit struct {
	Casual     int64
	Registered int64
}

// TempPoint is one point of the temperature versus rentals scatter.
type TempPoint struct {
	Date  Date
	Temp  float64
	Total int64
}
