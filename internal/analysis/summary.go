package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Summarize reduces the cleaned transactions and both aggregations into the
// top-line report. Largest values are zero when a partition is empty.
func Summarize(txs []core.Transaction, cats core.CategorySummaries, monthly []core.MonthlySummaryRow) core.AnalysisReport {
	r := core.AnalysisReport{
		TotalIncome:    decimal.Zero,
		TotalExpenses:  decimal.Zero,
		LargestIncome:  decimal.Zero,
		LargestExpense: decimal.Zero,
	}

	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			if r.IncomeTransactions == 0 || tx.Amount.GreaterThan(r.LargestIncome) {
				r.LargestIncome = tx.Amount
			}
			r.TotalIncome = r.TotalIncome.Add(tx.Amount)
			r.IncomeTransactions++
		case core.Expense:
			if tx.AbsoluteAmount.GreaterThan(r.LargestExpense) {
				r.LargestExpense = tx.AbsoluteAmount
			}
			r.TotalExpenses = r.TotalExpenses.Add(tx.AbsoluteAmount)
			r.ExpenseTransactions++
		}
	}
	r.NetSavings = r.TotalIncome.Sub(r.TotalExpenses)

	r.ExpenseCategories = nonNilCategories(cats.Expenses)
	r.IncomeSources = nonNilCategories(cats.Income)
	r.Monthly = monthly
	if r.Monthly == nil {
		r.Monthly = []core.MonthlySummaryRow{}
	}
	r.Insights = Insights(r)
	return r
}

// Insights derives the human-readable observations shown next to the
// summary. The savings rate is omitted unless total income is positive.
func Insights(r core.AnalysisReport) []string {
	insights := []string{}
	if len(r.ExpenseCategories) > 0 {
		top := r.ExpenseCategories[0]
		insights = append(insights, fmt.Sprintf("Your highest expense category is %s at $%s",
			top.Label, core.FormatMoney(top.TotalAmount)))
	}
	if len(r.IncomeSources) > 0 {
		top := r.IncomeSources[0]
		insights = append(insights, fmt.Sprintf("Your primary income source is %s contributing $%s",
			top.Label, core.FormatMoney(top.TotalAmount)))
	}
	if rate, ok := SavingsRate(r); ok {
		insights = append(insights, fmt.Sprintf("Your savings rate is %s%%", rate.StringFixed(1)))
	}
	return insights
}

// SavingsRate returns net savings as a percentage of total income.
func SavingsRate(r core.AnalysisReport) (decimal.Decimal, bool) {
	if !r.TotalIncome.IsPositive() {
		return decimal.Zero, false
	}
	return r.NetSavings.Mul(core.Hundred()).Div(r.TotalIncome), true
}

func nonNilCategories(rows []core.CategorySummaryRow) []core.CategorySummaryRow {
	if rows == nil {
		return []core.CategorySummaryRow{}
	}
	return rows
}
