package aggregate

import (
	"bikedash/internal/core"
)

// ResampleDaily produces one row per calendar day between the earliest and
// latest input date. Days without input rows are present with zero sums.
func ResampleDaily(daily []core.DailyRecord) ([]core.DailyAggregate, error) {
	if len(daily) == 0 {
		return []core.DailyAggregate{}, nil
	}
	if err := checkDates(daily); err != nil {
		return nil, err
	}

	// Keyed by normalized day so rows from any zone land on their calendar day.
	first, last := daily[0].Date.Normalize(), daily[0].Date.Normalize()
	byDay := make(map[core.Date]core.DailyAggregate, len(daily))
	for _, r := range daily {
		key := r.Date.Normalize()
		if key.Before(first) {
			first = key
		}
		if key.After(last) {
			last = key
		}
		agg := byDay[key]
		agg.Total += r.Total
		agg.Casual += r.Casual
		agg.Registered += r.Registered
		if r.WorkingDay {
			agg.WorkingDays++
		}
		byDay[key] = agg
	}

	out := make([]core.DailyAggregate, 0, int(last.Sub(first.Time).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDays(1) {
		agg := byDay[d]
		agg.Date = d
		out = append(out, agg)
	}
	return out, nil
}
