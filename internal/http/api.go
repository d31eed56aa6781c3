package http

import (
	"bikedash/internal/core"
	"bikedash/internal/services"
)

// JSON shapes for /api/dashboard. Each panel carries either data or an
// error string.
type (
	panelJSON[T any] struct {
		Data  *T     `json:"data,omitempty"`
		Error string `json:"error,omitempty"`
	}

	dayJSON struct {
		Date        string `json:"date"`
		Total       int64  `json:"total"`
		Casual      int64  `json:"casual"`
		Registered  int64  `json:"registered"`
		WorkingDays int64  `json:"working_days"`
	}

	dailyJSON struct {
		Total int64     `json:"total"`
		Days  []dayJSON `json:"days"`
	}

	workingDayJSON struct {
		Working    int64 `json:"working"`
		NonWorking int64 `json:"non_working"`
	}

	ridersJSON struct {
		Casual     int64 `json:"casual"`
		Registered int64 `json:"registered"`
	}

	labeledJSON struct {
		Label   string   `json:"label"`
		Total   int64    `json:"total"`
		Percent *float64 `json:"percent,omitempty"`
	}

	monthJSON struct {
		Month string `json:"month"`
		Total int64  `json:"total"`
	}

	monthsJSON struct {
		All   []monthJSON `json:"all"`
		Best  []monthJSON `json:"best"`
		Worst []monthJSON `json:"worst"`
	}

	tempPointJSON struct {
		Date  string  `json:"date"`
		Temp  float64 `json:"temp"`
		Total int64   `json:"total"`
	}

	temperatureJSON struct {
		Correlation *float64        `json:"correlation,omitempty"`
		Note        string          `json:"note,omitempty"`
		Points      []tempPointJSON `json:"points"`
	}

	dashboardJSON struct {
		Start       string                     `json:"start"`
		End         string                     `json:"end"`
		Version     uint64                     `json:"snapshot_version"`
		Daily       panelJSON[dailyJSON]       `json:"daily"`
		WorkingDays panelJSON[workingDayJSON]  `json:"workingday"`
		Riders      panelJSON[ridersJSON]      `json:"riders"`
		Hours       panelJSON[[]labeledJSON]   `json:"hours"`
		Seasons     panelJSON[[]labeledJSON]   `json:"seasons"`
		Weather     panelJSON[[]labeledJSON]   `json:"weather"`
		Months      panelJSON[monthsJSON]      `json:"months"`
		Temperature panelJSON[temperatureJSON] `json:"temperature"`
	}

	exportAcceptedJSON struct {
		ID      string   `json:"id"`
		Start   string   `json:"start"`
		End     string   `json:"end"`
		Targets []string `json:"targets"`
	}
)

// toPanelJSON converts a panel with fn unless it failed.
func toPanelJSON[T, J any](p services.Panel[T], fn func(T) J) panelJSON[J] {
	if p.Err != nil {
		return panelJSON[J]{Error: p.Err.Error()}
	}
	v := fn(p.Data)
	return panelJSON[J]{Data: &v}
}

func newDashboardJSON(d services.Dashboard) dashboardJSON {
	return dashboardJSON{
		Start:   d.Range.Start.String(),
		End:     d.Range.End.String(),
		Version: d.Version,
		Daily: toPanelJSON(d.Daily, func(p services.DailyPanel) dailyJSON {
			days := make([]dayJSON, 0, len(p.Days))
			for _, a := range p.Days {
				days = append(days, dayJSON{
					Date:        a.Date.String(),
					Total:       a.Total,
					Casual:      a.Casual,
					Registered:  a.Registered,
					WorkingDays: a.WorkingDays,
				})
			}
			return dailyJSON{Total: p.Total, Days: days}
		}),
		WorkingDays: toPanelJSON(d.WorkingDays, func(p services.WorkingDayPanel) workingDayJSON {
			return workingDayJSON{Working: p.Split.Working, NonWorking: p.Split.NonWorking}
		}),
		Riders: toPanelJSON(d.Riders, func(p core.RiderSplit) ridersJSON {
			return ridersJSON{Casual: p.Casual, Registered: p.Registered}
		}),
		Hours:   toPanelJSON(d.Hours, labeledTotalsJSON),
		Seasons: toPanelJSON(d.Seasons, labeledTotalsJSON),
		Weather: toPanelJSON(d.Weather, func(rows []core.LabeledShare) []labeledJSON {
			out := make([]labeledJSON, 0, len(rows))
			for _, r := range rows {
				pct := r.Percent
				out = append(out, labeledJSON{Label: r.Label, Total: r.Total, Percent: &pct})
			}
			return out
		}),
		Months: toPanelJSON(d.Months, func(p services.MonthsPanel) monthsJSON {
			return monthsJSON{All: monthsToJSON(p.All), Best: monthsToJSON(p.Best), Worst: monthsToJSON(p.Worst)}
		}),
		Temperature: toPanelJSON(d.Temperature, func(p services.TemperaturePanel) temperatureJSON {
			out := temperatureJSON{Note: p.Note, Points: make([]tempPointJSON, 0, len(p.Points))}
			if p.HasCorrelation {
				corr := p.Correlation
				out.Correlation = &corr
			}
			for _, pt := range p.Points {
				out.Points = append(out.Points, tempPointJSON{Date: pt.Date.String(), Temp: pt.Temp, Total: pt.Total})
			}
			return out
		}),
	}
}

func labeledTotalsJSON(rows []core.LabeledTotal) []labeledJSON {
	out := make([]labeledJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, labeledJSON{Label: r.Label, Total: r.Total})
	}
	return out
}

func monthsToJSON(months []core.MonthTotal) []monthJSON {
	out := make([]monthJSON, 0, len(months))
	for _, m := range months {
		out = append(out, monthJSON{Month: m.Period.String(), Total: m.Total})
	}
	return out
}
