// Package aggregate derives the dashboard views from the daily and hourly
// tables. Every function is pure: inputs are never mutated and each call
// returns freshly allocated results.
package aggregate

import (
	"fmt"

	"bikedash/internal/core"
)

// checkDates fails on the first row without a calendar day.
func checkDates[T core.Dated](rows []T) error {
	for i, r := range rows {
		if r.RecordDate().IsZero() {
			return fmt.Errorf("%w: row %d has no date", core.ErrMalformedRecord, i)
		}
	}
	return nil
}
