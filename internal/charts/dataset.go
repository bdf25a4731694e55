package charts

import "finsight/internal/core"

// Dataset is the JSON shape served for a chart. Rows is never null.
type Dataset struct {
	Chart core.ChartKind `json:"chart"`
	Rows  any            `json:"rows"`
}

// NewDataset picks the populated side of table.
func NewDataset(table core.ChartTable) Dataset {
	d := Dataset{Chart: table.Kind}
	switch {
	case table.Kind.IsMonthly():
		rows := table.Months
		if rows == nil {
			rows = []core.MonthlySummaryRow{}
		}
		d.Rows = rows
	default:
		rows := table.Categories
		if rows == nil {
			rows = []core.CategorySummaryRow{}
		}
		d.Rows = rows
	}
	return d
}
