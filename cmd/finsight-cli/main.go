// Command finsight-cli analyzes a local ledger file and prints the report,
// or one chart table, as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"finsight/internal/analysis"
	"finsight/internal/charts"
	"finsight/internal/cli"
	"finsight/internal/core"
	fileingest "finsight/internal/ingest/file"
	"finsight/internal/log"
)

func main() {
	var (
		path     = flag.String("file", "", "ledger file (.csv or .xlsx)")
		chart    = flag.String("chart", "", "print one chart table instead of the report")
		logLevel = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger := cli.SetupLogger(*logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, *path, *chart); err != nil {
		logger.Error("Analysis failed", log.FieldError, err, log.FieldSource, *path)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, path, chart string) error {
	if path == "" {
		return fmt.Errorf("missing -file")
	}
	var kind core.ChartKind
	if chart != "" {
		k, err := core.ParseChartKind(chart)
		if err != nil {
			return err
		}
		kind = k
	}

	src, err := fileingest.Open(path)
	if err != nil {
		return err
	}
	rows, err := src.Rows(ctx)
	if err != nil {
		return err
	}
	res, err := analysis.Analyze(ctx, rows)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if kind != "" {
		return enc.Encode(charts.NewDataset(core.TableFor(res.Report, kind)))
	}
	return enc.Encode(res.Report)
}
