package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finsight/internal/core"
)

func writeLedger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.csv")
	data := "Date,Amount,Type,Category\n" +
		"2024-01-05,2000,Income,Salary\n" +
		"2024-01-10,-500,Expense,Rent\n" +
		"2024-02-01,-200,Expense,Food\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write ledger: %v", err)
	}
	return path
}

func TestRunReport(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, writeLedger(t), ""); err != nil {
		t.Fatalf("run: %v", err)
	}
	var report map[string]any
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report["net_savings"] != "1300" {
		t.Fatalf("net_savings = %v", report["net_savings"])
	}
}

func TestRunChart(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, writeLedger(t), "cumulative_savings"); err != nil {
		t.Fatalf("run: %v", err)
	}
	var ds struct {
		Chart string           `json:"chart"`
		Rows  []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal(out.Bytes(), &ds); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ds.Chart != "cumulative_savings" || len(ds.Rows) != 2 {
		t.Fatalf("dataset = %+v", ds)
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(context.Background(), &bytes.Buffer{}, "", ""); err == nil {
		t.Fatalf("expected error without -file")
	}
	err := run(context.Background(), &bytes.Buffer{}, writeLedger(t), "pie")
	if !errors.Is(err, core.ErrUnknownChart) {
		t.Fatalf("err = %v, want ErrUnknownChart", err)
	}
	if err := run(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.csv"), ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
