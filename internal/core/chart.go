package core

import "fmt"

// ChartKind names one of the derived tables a charting client can request.
type ChartKind string

const (
	ChartExpenseCategories ChartKind = "expense_categories"
	ChartIncomeSources     ChartKind = "income_sources"
	ChartMonthlyTrends     ChartKind = "monthly_trends"
	ChartCategoryBars      ChartKind = "category_bars"
	ChartCumulativeSavings ChartKind = "cumulative_savings"
)

// CategoryBarLimit caps the category_bars table to the largest expense categories.
const CategoryBarLimit = 10

// ChartKinds lists every requestable chart in display order.
func ChartKinds() []ChartKind {
	return []ChartKind{
		ChartExpenseCategories,
		ChartIncomeSources,
		ChartMonthlyTrends,
		ChartCategoryBars,
		ChartCumulativeSavings,
	}
}

// ParseChartKind returns ErrUnknownChart for any name not in ChartKinds.
func ParseChartKind(name string) (ChartKind, error) {
	for _, k := range ChartKinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

// IsMonthly reports whether the chart is backed by monthly rows rather than category rows.
func (k ChartKind) IsMonthly() bool {
	return k == ChartMonthlyTrends || k == ChartCumulativeSavings
}

// ChartTable is the data behind one chart. Exactly one of Categories or
// Months is populated, depending on Kind.
type ChartTable struct {
	Kind       ChartKind            `json:"kind"`
	Categories []CategorySummaryRow `json:"categories,omitempty"`
	Months     []MonthlySummaryRow  `json:"months,omitempty"`
}

// Empty reports whether the table has no rows to plot.
func (t ChartTable) Empty() bool {
	return len(t.Categories) == 0 && len(t.Months) == 0
}

// TableFor selects the rows that back the given chart from a report.
func TableFor(r AnalysisReport, kind ChartKind) ChartTable {
	t := ChartTable{Kind: kind}
	switch kind {
	case ChartExpenseCategories:
		t.Categories = r.ExpenseCategories
	case ChartIncomeSources:
		t.Categories = r.IncomeSources
	case ChartCategoryBars:
		rows := r.ExpenseCategories
		if len(rows) > CategoryBarLimit {
			rows = rows[:CategoryBarLimit]
		}
		t.Categories = rows
	case ChartMonthlyTrends, ChartCumulativeSavings:
		t.Months = r.Monthly
	}
	return t
}
