// Package charts turns chart tables into PNG images and JSON datasets.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"finsight/internal/core"
)

// ErrEmptyChart is returned when a table has nothing to plot.
var ErrEmptyChart = errors.New("chart has no data")

var (
	incomeColor  = drawing.ColorFromHex("2e7d32")
	expenseColor = drawing.ColorFromHex("c62828")
	savingsColor = drawing.ColorFromHex("1565c0")
)

// Renderer draws PNG charts at a fixed size.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: 1000, Height: 560}
}

// Render draws the chart for table. Empty tables yield ErrEmptyChart.
func (r *Renderer) Render(table core.ChartTable) ([]byte, error) {
	if table.Empty() {
		return nil, ErrEmptyChart
	}
	var (
		buf bytes.Buffer
		err error
	)
	switch table.Kind {
	case core.ChartExpenseCategories:
		err = r.pie("Expenses by category", table.Categories, &buf)
	case core.ChartIncomeSources:
		err = r.pie("Income by source", table.Categories, &buf)
	case core.ChartCategoryBars:
		err = r.bars("Top expense categories", table.Categories, &buf)
	case core.ChartMonthlyTrends:
		err = r.monthlyTrends(table.Months, &buf)
	case core.ChartCumulativeSavings:
		err = r.cumulative(table.Months, &buf)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownChart, table.Kind)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) background() chart.Style {
	return chart.Style{
		Padding:   chart.Box{Top: 50, Left: 30, Right: 30, Bottom: 30},
		FillColor: chart.ColorWhite,
	}
}

func (r *Renderer) pie(title string, rows []core.CategorySummaryRow, buf *bytes.Buffer) error {
	values := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		v := row.TotalAmount.InexactFloat64()
		// slices must be positive
		if v <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s%%)", label(row.Label), row.Percentage.StringFixed(1)),
			Value: v,
		})
	}
	if len(values) == 0 {
		return ErrEmptyChart
	}
	pie := chart.PieChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Values:     values,
		Background: r.background(),
	}
	if err := pie.Render(chart.PNG, buf); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

func (r *Renderer) bars(title string, rows []core.CategorySummaryRow, buf *bytes.Buffer) error {
	bars := make([]chart.Value, 0, len(rows))
	top := 0.0
	for _, row := range rows {
		v := row.TotalAmount.InexactFloat64()
		if v > top {
			top = v
		}
		bars = append(bars, chart.Value{
			Label: label(row.Label),
			Value: v,
			Style: chart.Style{FillColor: expenseColor, StrokeColor: expenseColor},
		})
	}
	if top <= 0 {
		return ErrEmptyChart
	}
	bw := barWidth(r.Width, len(bars))
	graph := chart.BarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   bw,
		BarSpacing: bw / 2,
		Background: r.background(),
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: moneyFormatter,
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func (r *Renderer) monthlyTrends(months []core.MonthlySummaryRow, buf *bytes.Buffer) error {
	x := monthTimes(months)
	income := make([]float64, len(months))
	expense := make([]float64, len(months))
	for i, m := range months {
		income[i] = m.MonthlyIncome.InexactFloat64()
		expense[i] = m.MonthlyExpense.InexactFloat64()
	}
	graph := r.timeChart("Monthly income vs expenses", x, append(append([]float64{}, income...), expense...))
	graph.Series = []chart.Series{
		chart.TimeSeries{
			Name:    "Income",
			XValues: x,
			YValues: income,
			Style:   chart.Style{StrokeColor: incomeColor, StrokeWidth: 2, DotWidth: 4, DotColor: incomeColor},
		},
		chart.TimeSeries{
			Name:    "Expenses",
			XValues: x,
			YValues: expense,
			Style:   chart.Style{StrokeColor: expenseColor, StrokeWidth: 2, DotWidth: 4, DotColor: expenseColor},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return fmt.Errorf("render monthly trends: %w", err)
	}
	return nil
}

func (r *Renderer) cumulative(months []core.MonthlySummaryRow, buf *bytes.Buffer) error {
	x := monthTimes(months)
	y := make([]float64, len(months))
	for i, m := range months {
		y[i] = m.CumulativeSavings.InexactFloat64()
	}
	graph := r.timeChart("Cumulative savings", x, y)
	graph.Series = []chart.Series{
		chart.TimeSeries{
			Name:    "Cumulative savings",
			XValues: x,
			YValues: y,
			Style: chart.Style{
				StrokeColor: savingsColor,
				StrokeWidth: 3,
				FillColor:   savingsColor.WithAlpha(48),
				DotWidth:    4,
				DotColor:    savingsColor,
			},
		},
	}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return fmt.Errorf("render cumulative savings: %w", err)
	}
	return nil
}

// timeChart sets explicit axis ranges so a single month or a flat series
// still has a non-zero span.
func (r *Renderer) timeChart(title string, x []time.Time, ys []float64) chart.Chart {
	lo, hi := ys[0], ys[0]
	for _, v := range ys {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > 0 {
		lo = 0
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05

	first := x[0].AddDate(0, 0, -15)
	last := x[len(x)-1].AddDate(0, 0, 15)
	ticks := make([]chart.Tick, len(x))
	for i, t := range x {
		ticks[i] = chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Format("2006-01")}
	}

	return chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: r.background(),
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: chart.TimeToFloat64(first), Max: chart.TimeToFloat64(last)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: moneyFormatter,
		},
	}
}

func monthTimes(months []core.MonthlySummaryRow) []time.Time {
	out := make([]time.Time, len(months))
	for i, m := range months {
		out[i] = m.MonthKey.Start()
	}
	return out
}

func moneyFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("$%.0f", f)
	}
	return ""
}

func barWidth(width, n int) int {
	if n == 0 {
		return 40
	}
	w := (width - 120) / (n * 2)
	if w > 80 {
		return 80
	}
	if w < 10 {
		return 10
	}
	return w
}

func label(s string) string {
	if s == "" {
		return "(uncategorized)"
	}
	return s
}
