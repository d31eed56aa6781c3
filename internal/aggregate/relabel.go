package aggregate

import (
	"fmt"
	"maps"
	"slices"

	"bikedash/internal/core"
)

// Relabel groups rows by a categorical code, sums value per code and
// replaces each code with its label. Rows come out in ascending code
// order; codes that never occur are omitted.
func Relabel[T core.Dated](rows []T, code func(T) int, value func(T) int64, labels core.Labels) ([]core.LabeledTotal, error) {
	if err := checkDates(rows); err != nil {
		return nil, err
	}

	sums := make(map[int]int64)
	for i, r := range rows {
		c := code(r)
		if _, ok := labels[c]; !ok {
			return nil, fmt.Errorf("%w: code %d at row %d", core.ErrUnrecognizedCategory, c, i)
		}
		sums[c] += value(r)
	}

	out := make([]core.LabeledTotal, 0, len(sums))
	for _, c := range slices.Sorted(maps.Keys(sums)) {
		out = append(out, core.LabeledTotal{Label: labels[c], Total: sums[c]})
	}
	return out, nil
}

// BySeason sums daily rentals per season.
func BySeason(daily []core.DailyRecord) ([]core.LabeledTotal, error) {
	out, err := Relabel(daily,
		func(r core.DailyRecord) int { return r.Season },
		func(r core.DailyRecord) int64 { return r.Total },
		core.SeasonLabels)
	if err != nil {
		return nil, fmt.Errorf("group by season: %w", err)
	}
	return out, nil
}

// ByWeather sums daily rentals per weather condition.
func ByWeather(daily []core.DailyRecord) ([]core.LabeledTotal, error) {
	out, err := Relabel(daily,
		func(r core.DailyRecord) int { return r.Weather },
		func(r core.DailyRecord) int64 { return r.Total },
		core.WeatherLabels)
	if err != nil {
		return nil, fmt.Errorf("group by weather: %w", err)
	}
	return out, nil
}
