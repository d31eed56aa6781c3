package http

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bikedash/internal/core"
	"bikedash/internal/services"
)

var numbers = message.NewPrinter(language.English)

// formatCount renders n with thousands separators.
func formatCount(n int64) string {
	return numbers.Sprintf("%d", n)
}

func formatPercent(p float64) string {
	return numbers.Sprintf("%.1f%%", p)
}

var panelTitles = map[string]string{
	services.PanelDaily:       "Daily rentals",
	services.PanelWorkingDays: "Working vs non-working days",
	services.PanelRiders:      "Casual vs registered riders",
	services.PanelHours:       "Rentals by time of day",
	services.PanelSeasons:     "Rentals by season",
	services.PanelWeather:     "Rentals by weather",
	services.PanelMonths:      "Monthly rentals",
	services.PanelTemperature: "Temperature vs rentals",
}

// bar is one row of a horizontal bar chart; Width is a percentage of the
// largest row.
type bar struct {
	Label   string
	Value   string
	Percent string
	Width   int
}

type series struct {
	Name   string
	Class  string
	Points string
}

type lineChart struct {
	Width, Height int
	Series        []series
	From, To      string
}

type dot struct{ X, Y int }

type (
	dailyView struct {
		Total string
		Days  int
		Chart lineChart
	}

	splitView struct {
		Bars  []bar
		Chart *lineChart
	}

	monthsView struct {
		All   []bar
		Best  []bar
		Worst []bar
	}

	temperatureView struct {
		Correlation string
		Note        string
		Points      int
		Width       int
		Height      int
		Dots        []dot
	}
)

// panelView is what every panel template receives.
type panelView struct {
	Name  string
	Title string
	Error string
	Data  any
}

const (
	chartWidth  = 600
	chartHeight = 160
)

// barWidth scales v against max as a rounded percentage, keeping tiny
// non-zero values visible.
func barWidth(v, max int64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	width := int((v*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func labeledBars(rows []core.LabeledTotal) []bar {
	var max, total int64
	for _, r := range rows {
		total += r.Total
		if r.Total > max {
			max = r.Total
		}
	}
	out := make([]bar, 0, len(rows))
	for _, r := range rows {
		b := bar{Label: r.Label, Value: formatCount(r.Total), Width: barWidth(r.Total, max)}
		if total > 0 {
			b.Percent = formatPercent(float64(r.Total) * 100 / float64(total))
		}
		out = append(out, b)
	}
	return out
}

func shareBars(rows []core.LabeledShare) []bar {
	var max int64
	for _, r := range rows {
		if r.Total > max {
			max = r.Total
		}
	}
	out := make([]bar, 0, len(rows))
	for _, r := range rows {
		out = append(out, bar{
			Label:   r.Label,
			Value:   formatCount(r.Total),
			Percent: formatPercent(r.Percent),
			Width:   barWidth(r.Total, max),
		})
	}
	return out
}

func monthBars(months []core.MonthTotal) []bar {
	rows := make([]core.LabeledTotal, 0, len(months))
	for _, m := range months {
		rows = append(rows, core.LabeledTotal{Label: m.Period.String(), Total: m.Total})
	}
	return labeledBars(rows)
}

// chartPoint is one value at position Index of an n-day axis.
type chartPoint struct {
	Index int
	Value int64
}

// polyline lays points out on an axis of n evenly spaced days, scaled to
// max. Days without a point are skipped, not drawn at zero.
func polyline(points []chartPoint, n int, max int64) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	step := 0.0
	if n > 1 {
		step = float64(chartWidth) / float64(n-1)
	}
	for i, p := range points {
		y := chartHeight
		if max > 0 {
			y = chartHeight - int(float64(p.Value)*float64(chartHeight)/float64(max))
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d,%d", int(float64(p.Index)*step), y)
	}
	return b.String()
}

func newLineChart(days []core.DailyAggregate, lines ...func(core.DailyAggregate) (int64, bool)) lineChart {
	c := lineChart{Width: chartWidth, Height: chartHeight}
	if len(days) > 0 {
		c.From = days[0].Date.String()
		c.To = days[len(days)-1].Date.String()
	}
	var max int64
	for _, d := range days {
		if d.Total > max {
			max = d.Total
		}
	}
	for _, line := range lines {
		var points []chartPoint
		for i, d := range days {
			if v, ok := line(d); ok {
				points = append(points, chartPoint{Index: i, Value: v})
			}
		}
		c.Series = append(c.Series, series{Points: polyline(points, len(days), max)})
	}
	return c
}

func dailyPanelView(p services.DailyPanel) dailyView {
	chart := newLineChart(p.Days, func(d core.DailyAggregate) (int64, bool) { return d.Total, true })
	chart.Series[0].Name, chart.Series[0].Class = "Total", "line-total"
	return dailyView{Total: formatCount(p.Total), Days: len(p.Days), Chart: chart}
}

func workingDayPanelView(p services.WorkingDayPanel, days []core.DailyAggregate) splitView {
	v := splitView{Bars: labeledBars([]core.LabeledTotal{
		{Label: "Working days", Total: p.Split.Working},
		{Label: "Non-working days", Total: p.Split.NonWorking},
	})}
	if len(days) > 0 {
		chart := newLineChart(days,
			func(d core.DailyAggregate) (int64, bool) { return d.Total, d.WorkingDays > 0 },
			func(d core.DailyAggregate) (int64, bool) { return d.Total, d.WorkingDays == 0 },
		)
		chart.Series[0].Name, chart.Series[0].Class = "Working", "line-working"
		chart.Series[1].Name, chart.Series[1].Class = "Non-working", "line-nonworking"
		v.Chart = &chart
	}
	return v
}

func ridersPanelView(p core.RiderSplit) splitView {
	return splitView{Bars: labeledBars([]core.LabeledTotal{
		{Label: "Casual", Total: p.Casual},
		{Label: "Registered", Total: p.Registered},
	})}
}

func temperaturePanelView(p services.TemperaturePanel) temperatureView {
	v := temperatureView{Note: p.Note, Points: len(p.Points), Width: chartWidth, Height: chartHeight}
	if p.HasCorrelation {
		v.Correlation = fmt.Sprintf("%.3f", p.Correlation)
	}
	var max int64
	for _, pt := range p.Points {
		if pt.Total > max {
			max = pt.Total
		}
	}
	for _, pt := range p.Points {
		d := dot{X: int(pt.Temp * chartWidth), Y: chartHeight}
		if max > 0 {
			d.Y = chartHeight - int(float64(pt.Total)*chartHeight/float64(max))
		}
		v.Dots = append(v.Dots, d)
	}
	return v
}

// panelViewFor turns one dashboard panel into its template data. The
// boolean is false for an unknown panel name.
func panelViewFor(d services.Dashboard, name string) (panelView, bool) {
	v := panelView{Name: name, Title: panelTitles[name]}
	var err error
	switch name {
	case services.PanelDaily:
		err = d.Daily.Err
		if err == nil {
			v.Data = dailyPanelView(d.Daily.Data)
		}
	case services.PanelWorkingDays:
		err = d.WorkingDays.Err
		if err == nil {
			v.Data = workingDayPanelView(d.WorkingDays.Data, d.Daily.Data.Days)
		}
	case services.PanelRiders:
		err = d.Riders.Err
		if err == nil {
			v.Data = ridersPanelView(d.Riders.Data)
		}
	case services.PanelHours:
		err = d.Hours.Err
		if err == nil {
			v.Data = labeledBars(d.Hours.Data)
		}
	case services.PanelSeasons:
		err = d.Seasons.Err
		if err == nil {
			v.Data = labeledBars(d.Seasons.Data)
		}
	case services.PanelWeather:
		err = d.Weather.Err
		if err == nil {
			v.Data = shareBars(d.Weather.Data)
		}
	case services.PanelMonths:
		err = d.Months.Err
		if err == nil {
			v.Data = monthsView{
				All:   monthBars(d.Months.Data.All),
				Best:  monthBars(d.Months.Data.Best),
				Worst: monthBars(d.Months.Data.Worst),
			}
		}
	case services.PanelTemperature:
		err = d.Temperature.Err
		if err == nil {
			v.Data = temperaturePanelView(d.Temperature.Data)
		}
	default:
		return panelView{}, false
	}
	if err != nil {
		v.Error = "Could not compute this panel: " + err.Error()
	}
	return v, true
}

// pageView is the data for the full dashboard page.
type pageView struct {
	Start, End     string
	MinDate        string
	MaxDate        string
	Version        uint64
	Total          string
	Error          string
	Panels         []panelView
	ExportsEnabled bool
}
