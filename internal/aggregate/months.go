package aggregate

import (
	"cmp"
	"slices"

	"bikedash/internal/core"
)

// ByMonth sums daily rentals per calendar month in chronological order.
// Months without input rows are not emitted.
func ByMonth(daily []core.DailyRecord) ([]core.MonthTotal, error) {
	if err := checkDates(daily); err != nil {
		return nil, err
	}

	sums := make(map[core.YearMonth]int64)
	for _, r := range daily {
		sums[r.Date.YearMonth()] += r.Total
	}

	out := make([]core.MonthTotal, 0, len(sums))
	for ym, total := range sums {
		out = append(out, core.MonthTotal{Period: ym, Total: total})
	}
	slices.SortFunc(out, func(a, b core.MonthTotal) int {
		return a.Period.Compare(b.Period)
	})
	return out, nil
}

// TopMonths returns the n months with the highest totals, best first.
// Equal totals keep chronological order.
func TopMonths(months []core.MonthTotal, n int) []core.MonthTotal {
	return rankMonths(months, n, func(a, b core.MonthTotal) int {
		return cmp.Compare(b.Total, a.Total)
	})
}

// BottomMonths returns the n months with the lowest totals, worst first.
// Equal totals keep chronological order.
func BottomMonths(months []core.MonthTotal, n int) []core.MonthTotal {
	return rankMonths(months, n, func(a, b core.MonthTotal) int {
		return cmp.Compare(a.Total, b.Total)
	})
}

func rankMonths(months []core.MonthTotal, n int, byTotal func(a, b core.MonthTotal) int) []core.MonthTotal {
	if n <= 0 || len(months) == 0 {
		return []core.MonthTotal{}
	}
	ranked := slices.Clone(months)
	slices.SortFunc(ranked, func(a, b core.MonthTotal) int {
		if c := byTotal(a, b); c != 0 {
			return c
		}
		return a.Period.Compare(b.Period)
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
