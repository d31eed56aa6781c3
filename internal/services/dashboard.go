package services

import (
	"bikedash/internal/core"
)

// Panel carries one dashboard view or the error that prevented it.
// A failing panel never blocks the others.
type Panel[T any] struct {
	Data T
	Err  error
}

// OK reports whether the panel was built.
func (p Panel[T]) OK() bool { return p.Err == nil }

type (
	// DailyPanel is the resampled daily series with its headline total.
	DailyPanel struct {
		Days  []core.DailyAggregate
		Total int64
	}

	// WorkingDayPanel splits rentals by working and non-working days.
	WorkingDayPanel struct {
		Split      core.WorkingDaySplit
		Working    []core.DailyAggregate
		NonWorking []core.DailyAggregate
	}

	MonthsPanel struct {
		All   []core.MonthTotal
		Best  []core.MonthTotal
		Worst []core.MonthTotal
	}

	// TemperaturePanel holds the scatter points and, when it can be
	// computed, the correlation between temperature and rentals.
	TemperaturePanel struct {
		Points         []core.TempPoint
		Correlation    float64
		HasCorrelation bool
		Note           string
	}
)

// Dashboard is every view for one date range of one snapshot.
type Dashboard struct {
	Range   core.DateRange
	Version uint64

	Daily       Panel[DailyPanel]
	WorkingDays Panel[WorkingDayPanel]
	Riders      Panel[core.RiderSplit]
	Hours       Panel[[]core.LabeledTotal]
	Seasons     Panel[[]core.LabeledTotal]
	Weather     Panel[[]core.LabeledShare]
	Months      Panel[MonthsPanel]
	Temperature Panel[TemperaturePanel]
}

// Errors returns the panel errors keyed by panel name.
func (d Dashboard) Errors() map[string]error {
	errs := make(map[string]error)
	add := func(name string, err error) {
		if err != nil {
			errs[name] = err
		}
	}
	add(PanelDaily, d.Daily.Err)
	add(PanelWorkingDays, d.WorkingDays.Err)
	add(PanelRiders, d.Riders.Err)
	add(PanelHours, d.Hours.Err)
	add(PanelSeasons, d.Seasons.Err)
	add(PanelWeather, d.Weather.Err)
	add(PanelMonths, d.Months.Err)
	add(PanelTemperature, d.Temperature.Err)
	return errs
}

// Panel names, also used as partial route names.
const (
	PanelDaily       = "daily"
	PanelWorkingDays = "workingday"
	PanelRiders      = "riders"
	PanelHours       = "hours"
	PanelSeasons     = "seasons"
	PanelWeather     = "weather"
	PanelMonths      = "months"
	PanelTemperature = "temperature"
)

// PanelNames lists every panel in page order.
var PanelNames = []string{
	PanelDaily,
	PanelWorkingDays,
	PanelRiders,
	PanelHours,
	PanelSeasons,
	PanelWeather,
	PanelMonths,
	PanelTemperature,
}
