package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

type monthAcc struct {
	income  decimal.Decimal
	expense decimal.Decimal
}

// AggregateMonthly builds the chronological monthly series. A month with
// activity on only one side still appears, the other side being zero.
// Cumulative savings is the running sum of net savings in month order.
func AggregateMonthly(txs []core.Transaction) []core.MonthlySummaryRow {
	months := make(map[core.MonthKey]*monthAcc)
	for _, tx := range txs {
		acc, ok := months[tx.MonthKey]
		if !ok {
			acc = &monthAcc{income: decimal.Zero, expense: decimal.Zero}
			months[tx.MonthKey] = acc
		}
		switch tx.Type {
		case core.Income:
			acc.income = acc.income.Add(tx.Amount)
		case core.Expense:
			acc.expense = acc.expense.Add(tx.AbsoluteAmount)
		}
	}

	keys := make([]core.MonthKey, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	rows := make([]core.MonthlySummaryRow, 0, len(keys))
	cumulative := decimal.Zero
	for _, k := range keys {
		acc := months[k]
		net := acc.income.Sub(acc.expense)
		cumulative = cumulative.Add(net)
		rows = append(rows, core.MonthlySummaryRow{
			MonthKey:          k,
			MonthlyIncome:     acc.income,
			MonthlyExpense:    acc.expense,
			NetSavings:        net,
			CumulativeSavings: cumulative,
		})
	}
	return rows
}
