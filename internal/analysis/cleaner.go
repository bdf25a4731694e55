// Package analysis turns raw ledger rows into validated transactions and
// derives the category, monthly and top-line aggregates from them.
//
// Every function here is a pure transform over its inputs: no I/O, no
// shared state. Clean drops malformed rows silently; the aggregators never
// fail and return empty sequences for empty partitions.
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"finsight/internal/core"
)

// Clean normalizes raw rows into transactions ordered by date. Rows whose
// date, amount or type cannot be coerced are excluded; partial success is
// the expected outcome for user-supplied spreadsheets.
func Clean(rows []core.RawRow) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := CleanRow(row)
		if err != nil {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// CleanRow validates a single row. The returned error wraps one of
// core.ErrInvalidDate, core.ErrInvalidAmount or core.ErrInvalidType.
func CleanRow(row core.RawRow) (core.Transaction, error) {
	date, err := ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", row.Amount, err)
	}
	typ, err := core.ParseTransactionType(row.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.NewTransaction(date, amount, typ, row.Category), nil
}

// ParseDate accepts the date layouts commonly exported by spreadsheets and
// banks. Ambiguous numeric forms such as 03/04/2024 are read month first.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", core.ErrInvalidDate)
	}
	// Digit runs other than YYYYMMDD are years or epoch seconds, not dates.
	if len(s) != 8 && strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
		return time.Time{}, fmt.Errorf("%w: bare number %q", core.ErrInvalidDate, s)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", core.ErrInvalidDate, s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
