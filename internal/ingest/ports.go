// Package ingest defines where raw ledger rows come from. Adapters live in
// subpackages: file (csv/xlsx uploads) and google (Sheets ranges).
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finsight/internal/core"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrNoRows            = errors.New("no header row")
	ErrMalformedFile     = errors.New("unreadable file")
)

// RowSource delivers untrusted rows for one dataset.
type RowSource interface {
	Rows(ctx context.Context) ([]core.RawRow, error)
	// Name identifies the dataset in history and logs.
	Name() string
}

// Header names, matched case-insensitively after trimming.
const (
	ColumnDate     = "Date"
	ColumnAmount   = "Amount"
	ColumnType     = "Type"
	ColumnCategory = "Category"
)

// RowsFromRecords maps a header-first record matrix onto RawRows. Date,
// Amount and Type are required; a missing Category column yields empty
// labels. Extra columns are ignored and short records are padded.
func RowsFromRecords(records [][]string) ([]core.RawRow, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}
	header := append([]string(nil), records[0]...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	colDate := indexOf(header, ColumnDate)
	colAmount := indexOf(header, ColumnAmount)
	colType := indexOf(header, ColumnType)
	colCategory := indexOf(header, ColumnCategory)

	var missing []string
	if colDate == -1 {
		missing = append(missing, ColumnDate)
	}
	if colAmount == -1 {
		missing = append(missing, ColumnAmount)
	}
	if colType == -1 {
		missing = append(missing, ColumnType)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s; got headers=%v", ErrMissingColumn, strings.Join(missing, ","), header)
	}

	rows := make([]core.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, core.RawRow{
			Date:     safeGet(rec, colDate),
			Amount:   safeGet(rec, colAmount),
			Type:     safeGet(rec, colType),
			Category: safeGet(rec, colCategory),
		})
	}
	return rows, nil
}

// Static serves a fixed set of rows. Useful for seeding and tests.
type Static struct {
	Label string
	Data  []core.RawRow
}

func (s Static) Rows(ctx context.Context) ([]core.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]core.RawRow(nil), s.Data...), nil
}

func (s Static) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
