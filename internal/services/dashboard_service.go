package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bikedash/internal/aggregate"
	"bikedash/internal/core"
)

// DefaultRankedMonths is how many best and worst months the dashboard shows.
const DefaultRankedMonths = 3

// DashboardService derives every dashboard panel from a snapshot.
type DashboardService struct {
	rankedMonths int
}

func NewDashboardService(rankedMonths int) *DashboardService {
	if rankedMonths <= 0 {
		rankedMonths = DefaultRankedMonths
	}
	return &DashboardService{rankedMonths: rankedMonths}
}

// Build validates r, restricts the snapshot to it once and computes each
// panel independently. Only an invalid range, a cancelled context or a
// snapshot that cannot be filtered fail the whole call.
func (s *DashboardService) Build(ctx context.Context, snap *core.Snapshot, r core.DateRange) (Dashboard, error) {
	if err := r.Validate(); err != nil {
		return Dashboard{}, err
	}
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}

	filtered, err := aggregate.FilterSnapshot(snap, r)
	if err != nil {
		return Dashboard{}, fmt.Errorf("filter snapshot: %w", err)
	}

	d := Dashboard{Range: r, Version: filtered.Version}

	days, daysErr := aggregate.ResampleDaily(filtered.Daily)
	if daysErr != nil {
		daysErr = fmt.Errorf("resample daily: %w", daysErr)
		d.Daily.Err = daysErr
		d.WorkingDays.Err = daysErr
		d.Riders.Err = daysErr
	} else {
		d.Daily.Data = DailyPanel{Days: days, Total: aggregate.TotalRentals(days)}
		working, nonWorking := aggregate.WorkingDaySeries(days)
		d.WorkingDays.Data = WorkingDayPanel{
			Split:      aggregate.WorkingDaySplit(days),
			Working:    working,
			NonWorking: nonWorking,
		}
		d.Riders.Data = aggregate.RiderSplit(days)
	}

	d.Hours.Data, d.Hours.Err = aggregate.ByHourGroup(filtered.Hourly)
	d.Seasons.Data, d.Seasons.Err = aggregate.BySeason(filtered.Daily)

	if weather, err := aggregate.ByWeather(filtered.Daily); err != nil {
		d.Weather.Err = err
	} else {
		d.Weather.Data = aggregate.Shares(weather)
	}

	if months, err := aggregate.ByMonth(filtered.Daily); err != nil {
		d.Months.Err = err
	} else {
		d.Months.Data = MonthsPanel{
			All:   months,
			Best:  aggregate.TopMonths(months, s.rankedMonths),
			Worst: aggregate.BottomMonths(months, s.rankedMonths),
		}
	}

	d.Temperature = s.temperaturePanel(filtered.Daily)

	for name, err := range d.Errors() {
		slog.WarnContext(ctx, "Dashboard panel failed",
			"panel", name,
			"range", r.String(),
			"error", err)
	}

	return d, nil
}

func (s *DashboardService) temperaturePanel(daily []core.DailyRecord) Panel[TemperaturePanel] {
	points, err := aggregate.TempScatter(daily)
	if err != nil {
		return Panel[TemperaturePanel]{Err: err}
	}

	panel := TemperaturePanel{Points: points}
	corr, err := aggregate.TempCorrelation(daily)
	switch {
	case err == nil:
		panel.Correlation = corr
		panel.HasCorrelation = true
	case errors.Is(err, core.ErrInsufficientData):
		panel.Note = "Not enough data to compute a correlation"
	default:
		return Panel[TemperaturePanel]{Err: err}
	}
	return Panel[TemperaturePanel]{Data: panel}
}

// DefaultRange returns the full span of the snapshot's daily table.
func DefaultRange(snap *core.Snapshot) (core.DateRange, bool) {
	return snap.Span()
}
