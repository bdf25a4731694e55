package core

import "github.com/shopspring/decimal"

// CategorySummaryRow aggregates one category (or income source) within a
// single Income or Expense partition.
type CategorySummaryRow struct {
	Label            string          `json:"label"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AverageAmount    decimal.Decimal `json:"average_amount"`
	TransactionCount int             `json:"transaction_count"`
	Percentage       decimal.Decimal `json:"percentage_of_total"`
}

// MonthlySummaryRow is one calendar month of the income-vs-expense series.
type MonthlySummaryRow struct {
	MonthKey          MonthKey        `json:"month_key"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
	MonthlyExpense    decimal.Decimal `json:"monthly_expense"`
	NetSavings        decimal.Decimal `json:"net_savings"`
	CumulativeSavings decimal.Decimal `json:"cumulative_savings"`
}

// CategorySummaries holds both partitions of the category breakdown.
type CategorySummaries struct {
	Expenses []CategorySummaryRow
	Income   []CategorySummaryRow
}

// AnalysisReport is the top-line summary of one dataset. It is rebuilt in
// full on every analysis and treated as read-only afterwards.
type AnalysisReport struct {
	TotalIncome         decimal.Decimal      `json:"total_income"`
	TotalExpenses       decimal.Decimal      `json:"total_expenses"`
	NetSavings          decimal.Decimal      `json:"net_savings"`
	IncomeTransactions  int                  `json:"income_transactions"`
	ExpenseTransactions int                  `json:"expense_transactions"`
	LargestIncome       decimal.Decimal      `json:"largest_income"`
	LargestExpense      decimal.Decimal      `json:"largest_expense"`
	ExpenseCategories   []CategorySummaryRow `json:"expense_categories"`
	IncomeSources       []CategorySummaryRow `json:"income_sources"`
	Monthly             []MonthlySummaryRow  `json:"monthly"`
	Insights            []string             `json:"insights"`
}

// TransactionCount is the number of retained transactions behind the report.
func (r AnalysisReport) TransactionCount() int {
	return r.IncomeTransactions + r.ExpenseTransactions
}
