package aggregate

import (
	"fmt"

	"bikedash/internal/core"
)

// hourBounds holds the exclusive upper bound of each bucket in core.HourGroups.
var hourBounds = [...]int{6, 12, 15, 19, 24}

// HourBucket maps an hour of day to its bucket label.
//
//	[0,6) Early Morning, [6,12) Morning, [12,15) Noon, [15,19) Afternoon, [19,24) Night
func HourBucket(h int) (string, error) {
	if h < 0 || h > 23 {
		return "", fmt.Errorf("%w: hour %d outside 0-23", core.ErrMalformedRecord, h)
	}
	for i, upper := range hourBounds {
		if h < upper {
			return core.HourGroups[i], nil
		}
	}
	return "", fmt.Errorf("%w: hour %d", core.ErrMalformedRecord, h)
}

// ByHourGroup sums hourly rentals per bucket. A non-empty input yields all
// five buckets in day order, zero totals included; an empty input yields none.
func ByHourGroup(hourly []core.HourlyRecord) ([]core.LabeledTotal, error) {
	if len(hourly) == 0 {
		return []core.LabeledTotal{}, nil
	}
	if err := checkDates(hourly); err != nil {
		return nil, err
	}

	sums := make(map[string]int64, len(core.HourGroups))
	for i, r := range hourly {
		label, err := HourBucket(r.Hour)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		sums[label] += r.Total
	}

	out := make([]core.LabeledTotal, 0, len(core.HourGroups))
	for _, label := range core.HourGroups {
		out = append(out, core.LabeledTotal{Label: label, Total: sums[label]})
	}
	return out, nil
}
