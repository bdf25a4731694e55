// Package file reads ledger rows from uploaded spreadsheets.
package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"finsight/internal/core"
	"finsight/internal/ingest"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Source is one uploaded file held in memory.
type Source struct {
	name   string
	format Format
	data   []byte
}

var _ ingest.RowSource = (*Source)(nil)

// DetectFormat maps a filename to a parser. Legacy .xls workbooks are
// recognised but reported as unsupported.
func DetectFormat(filename string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return "", fmt.Errorf("%w: legacy .xls workbooks, save as .xlsx", ingest.ErrUnsupportedFormat)
	default:
		return "", fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, ext)
	}
}

// NewSource wraps file contents already read from a request or disk.
func NewSource(filename string, data []byte) (*Source, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	return &Source{name: filepath.Base(filename), format: format, data: data}, nil
}

// Open reads path from disk.
func Open(path string) (*Source, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewSource(path, data)
}

func (s *Source) Name() string   { return s.name }
func (s *Source) Format() Format { return s.format }

func (s *Source) Rows(ctx context.Context) ([]core.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		records [][]string
		err     error
	)
	switch s.format {
	case FormatCSV:
		records, err = readCSV(s.data)
	case FormatXLSX:
		records, err = readXLSX(s.data)
	default:
		return nil, fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, s.format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return ingest.RowsFromRecords(records)
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", ingest.ErrMalformedFile, err)
	}
	return records, nil
}

// readXLSX returns the rows of the first worksheet.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", ingest.ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ingest.ErrNoRows
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
