// Package google imports ledger rows from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finsight/internal/core"
	"finsight/internal/ingest"
)

// DefaultRange covers the four ledger columns of the first sheet.
const DefaultRange = "A:D"

// Options selects a spreadsheet range and the service account used to read it.
type Options struct {
	SpreadsheetID   string
	Range           string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	rng           string
}

var _ ingest.RowSource = (*Client)(nil)

// New creates a read-only Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(ctx, opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts.SpreadsheetID, opts.Range), nil
}

// NewWithService wires an already configured service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID, rng string) *Client {
	if strings.TrimSpace(rng) == "" {
		rng = DefaultRange
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, rng: rng}
}

// credentials resolves inline JSON first, then a file path, then
// GOOGLE_APPLICATION_CREDENTIALS.
func credentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	path := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case path != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", path)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) Name() string {
	return "sheets:" + c.spreadsheetID + "!" + c.rng
}

// Rows reads the configured range; the first row is the header.
func (c *Client) Rows(ctx context.Context) ([]core.RawRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", c.rng, err)
	}
	slog.InfoContext(ctx, "Read sheet range", "range", c.rng, "rows", len(resp.Values))
	return rowsFromValues(resp.Values)
}

func rowsFromValues(values [][]interface{}) ([]core.RawRow, error) {
	records := make([][]string, len(values))
	for i, v := range values {
		records[i] = toStrings(v)
	}
	return ingest.RowsFromRecords(records)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
