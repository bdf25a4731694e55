package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

type categoryAcc struct {
	sum   decimal.Decimal
	count int
}

// AggregateCategories groups one partition by category label. Expenses are
// totalled on absolute amounts, income on signed amounts. Rows come back
// sorted by total descending, ties by label ascending. A partition whose
// total is zero yields an empty sequence.
func AggregateCategories(txs []core.Transaction, typ core.TransactionType) []core.CategorySummaryRow {
	groups := make(map[string]*categoryAcc)
	partitionTotal := decimal.Zero

	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		value := tx.Amount
		if typ == core.Expense {
			value = tx.AbsoluteAmount
		}
		acc, ok := groups[tx.Category]
		if !ok {
			acc = &categoryAcc{sum: decimal.Zero}
			groups[tx.Category] = acc
		}
		acc.sum = acc.sum.Add(value)
		acc.count++
		partitionTotal = partitionTotal.Add(value)
	}

	rows := make([]core.CategorySummaryRow, 0, len(groups))
	if len(groups) == 0 || partitionTotal.IsZero() {
		return rows
	}

	for label, acc := range groups {
		rows = append(rows, core.CategorySummaryRow{
			Label:            label,
			TotalAmount:      acc.sum,
			AverageAmount:    acc.sum.Div(decimal.NewFromInt(int64(acc.count))),
			TransactionCount: acc.count,
			Percentage:       acc.sum.Mul(core.Hundred()).DivRound(partitionTotal, 2),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].TotalAmount.Cmp(rows[j].TotalAmount); c != 0 {
			return c > 0
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

// AggregateCategorySummaries runs AggregateCategories over both partitions.
func AggregateCategorySummaries(txs []core.Transaction) core.CategorySummaries {
	return core.CategorySummaries{
		Expenses: AggregateCategories(txs, core.Expense),
		Income:   AggregateCategories(txs, core.Income),
	}
}
