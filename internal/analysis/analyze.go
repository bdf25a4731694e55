package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"finsight/internal/core"
)

// Result is the output of one full analysis run.
type Result struct {
	Transactions []core.Transaction
	Report       core.AnalysisReport
}

// Analyze cleans rows, runs the category and monthly aggregators
// concurrently over the same read-only transaction set, then summarizes.
func Analyze(ctx context.Context, rows []core.RawRow) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	txs := Clean(rows)

	var (
		cats    core.CategorySummaries
		monthly []core.MonthlySummaryRow
	)
	var g errgroup.Group
	g.Go(func() error {
		cats = AggregateCategorySummaries(txs)
		return nil
	})
	g.Go(func() error {
		monthly = AggregateMonthly(txs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{
		Transactions: txs,
		Report:       Summarize(txs, cats, monthly),
	}, nil
}
