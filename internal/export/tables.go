// Package export turns a dashboard into plain tables that the workbook and
// spreadsheet writers lay out.
package export

import (
	"fmt"
	"math"
	"strings"

	"bikedash/internal/core"
	"bikedash/internal/services"
)

// Sheet names, in workbook order.
const (
	SheetDaily   = "Daily"
	SheetHours   = "Hours"
	SheetSeasons = "Seasons"
	SheetWeather = "Weather"
	SheetMonths  = "Months"
	SheetSummary = "Summary"
)

// Table is one exported sheet. Cells are string, int64 or float64.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Tables lays out every successful panel of d as a table. Failed panels are
// left out of the data sheets and reported on the summary sheet instead.
func Tables(d services.Dashboard) []Table {
	var tables []Table

	if d.Daily.OK() {
		t := Table{Name: SheetDaily, Header: []string{"Date", "Total", "Casual", "Registered", "Working days"}}
		for _, day := range d.Daily.Data.Days {
			t.Rows = append(t.Rows, []any{day.Date.String(), day.Total, day.Casual, day.Registered, day.WorkingDays})
		}
		tables = append(tables, t)
	}

	if d.Hours.OK() {
		tables = append(tables, labeledTable(SheetHours, "Hour group", d.Hours.Data))
	}
	if d.Seasons.OK() {
		tables = append(tables, labeledTable(SheetSeasons, "Season", d.Seasons.Data))
	}

	if d.Weather.OK() {
		t := Table{Name: SheetWeather, Header: []string{"Weather", "Total", "Percent"}}
		for _, s := range d.Weather.Data {
			t.Rows = append(t.Rows, []any{s.Label, s.Total, round(s.Percent, 2)})
		}
		tables = append(tables, t)
	}

	if d.Months.OK() {
		t := Table{Name: SheetMonths, Header: []string{"Month", "Total"}}
		for _, m := range d.Months.Data.All {
			t.Rows = append(t.Rows, []any{m.Period.String(), m.Total})
		}
		tables = append(tables, t)
	}

	return append(tables, summaryTable(d))
}

// FileName is the export file name for a date range.
func FileName(r core.DateRange) string {
	return fmt.Sprintf("bikedash_%s_%s.xlsx", r.Start, r.End)
}

func labeledTable(name, label string, rows []core.LabeledTotal) Table {
	t := Table{Name: name, Header: []string{label, "Total"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{row.Label, row.Total})
	}
	return t
}

func summaryTable(d services.Dashboard) Table {
	t := Table{Name: SheetSummary, Header: []string{"Metric", "Value"}}
	add := func(metric string, value any) {
		t.Rows = append(t.Rows, []any{metric, value})
	}

	add("Start", d.Range.Start.String())
	add("End", d.Range.End.String())
	add("Snapshot version", int64(d.Version))

	if d.Daily.OK() {
		add("Total rentals", d.Daily.Data.Total)
	}
	if d.WorkingDays.OK() {
		add("Working day rentals", d.WorkingDays.Data.Split.Working)
		add("Non-working day rentals", d.WorkingDays.Data.Split.NonWorking)
	}
	if d.Riders.OK() {
		add("Casual rentals", d.Riders.Data.Casual)
		add("Registered rentals", d.Riders.Data.Registered)
	}
	if d.Temperature.OK() {
		if d.Temperature.Data.HasCorrelation {
			add("Temperature correlation", round(d.Temperature.Data.Correlation, 4))
		} else {
			add("Temperature correlation", d.Temperature.Data.Note)
		}
	}
	if d.Months.OK() {
		add("Best months", monthList(d.Months.Data.Best))
		add("Worst months", monthList(d.Months.Data.Worst))
	}

	errs := d.Errors()
	for _, name := range services.PanelNames {
		if err, ok := errs[name]; ok {
			add("Error: "+name, err.Error())
		}
	}
	return t
}

func monthList(months []core.MonthTotal) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = fmt.Sprintf("%s (%d)", m.Period, m.Total)
	}
	return strings.Join(parts, ", ")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
