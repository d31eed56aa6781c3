package aggregate

import (
	"fmt"

	"bikedash/internal/core"
)

// FilterRange keeps the rows whose date lies within r, both ends included.
// An empty result is valid.
func FilterRange[T core.Dated](rows []T, r core.DateRange) ([]T, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := checkDates(rows); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if r.Contains(row.RecordDate()) {
			out = append(out, row)
		}
	}
	return out, nil
}

// FilterSnapshot restricts both tables of s to r and returns a new snapshot.
func FilterSnapshot(s *core.Snapshot, r core.DateRange) (*core.Snapshot, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return &core.Snapshot{}, nil
	}

	daily, err := FilterRange(s.Daily, r)
	if err != nil {
		return nil, fmt.Errorf("filter daily table: %w", err)
	}
	hourly, err := FilterRange(s.Hourly, r)
	if err != nil {
		return nil, fmt.Errorf("filter hourly table: %w", err)
	}

	return &core.Snapshot{
		Daily:    daily,
		Hourly:   hourly,
		Source:   s.Source,
		LoadedAt: s.LoadedAt,
		Version:  s.Version,
	}, nil
}
