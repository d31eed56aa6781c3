package aggregate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"bikedash/internal/core"
)

// TotalRentals sums the rental total over resampled days.
func TotalRentals(days []core.DailyAggregate) int64 {
	var total int64
	for _, d := range days {
		total += d.Total
	}
	return total
}

// WorkingDaySplit sums rentals on working and non-working days.
func WorkingDaySplit(days []core.DailyAggregate) core.WorkingDaySplit {
	var split core.WorkingDaySplit
	for _, d := range days {
		if d.WorkingDays > 0 {
			split.Working += d.Total
		} else {
			split.NonWorking += d.Total
		}
	}
	return split
}

// WorkingDaySeries partitions resampled days into working and non-working series.
func WorkingDaySeries(days []core.DailyAggregate) (working, nonWorking []core.DailyAggregate) {
	working = make([]core.DailyAggregate, 0, len(days))
	nonWorking = make([]core.DailyAggregate, 0, len(days))
	for _, d := range days {
		if d.WorkingDays > 0 {
			working = append(working, d)
		} else {
			nonWorking = append(nonWorking, d)
		}
	}
	return working, nonWorking
}

// RiderSplit sums casual and registered rentals.
func RiderSplit(days []core.DailyAggregate) core.RiderSplit {
	var split core.RiderSplit
	for _, d := range days {
		split.Casual += d.Casual
		split.Registered += d.Registered
	}
	return split
}

// Shares computes each row's percentage of the summed total. A zero grand
// total yields zero percentages.
func Shares(rows []core.LabeledTotal) []core.LabeledShare {
	var total int64
	for _, r := range rows {
		total += r.Total
	}
	out := make([]core.LabeledShare, 0, len(rows))
	for _, r := range rows {
		share := core.LabeledShare{Label: r.Label, Total: r.Total}
		if total > 0 {
			share.Percent = float64(r.Total) * 100 / float64(total)
		}
		out = append(out, share)
	}
	return out
}

// TempScatter returns one point per daily row for the temperature scatter.
func TempScatter(daily []core.DailyRecord) ([]core.TempPoint, error) {
	if err := checkDates(daily); err != nil {
		return nil, err
	}
	out := make([]core.TempPoint, 0, len(daily))
	for _, r := range daily {
		out = append(out, core.TempPoint{Date: r.Date, Temp: r.Temp, Total: r.Total})
	}
	return out, nil
}

// TempCorrelation is the Pearson correlation between normalized temperature
// and daily rentals.
func TempCorrelation(daily []core.DailyRecord) (float64, error) {
	if err := checkDates(daily); err != nil {
		return 0, err
	}
	if len(daily) < 2 {
		return 0, fmt.Errorf("%w: correlation needs at least 2 days, got %d", core.ErrInsufficientData, len(daily))
	}

	temps := make([]float64, len(daily))
	totals := make([]float64, len(daily))
	for i, r := range daily {
		temps[i] = r.Temp
		totals[i] = float64(r.Total)
	}

	corr := stat.Correlation(temps, totals, nil)
	if math.IsNaN(corr) || math.IsInf(corr, 0) {
		return 0, fmt.Errorf("%w: temperature or rentals have zero variance", core.ErrInsufficientData)
	}
	return corr, nil
}
