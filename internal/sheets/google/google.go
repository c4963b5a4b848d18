// Package google exports transactions to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"taskfin/internal/config"
	"taskfin/internal/googleauth"
	ports "taskfin/internal/sheets"
)

// valuesAPI is the slice of the Sheets API the exporter uses.
type valuesAPI interface {
	EnsureSheet(ctx context.Context, title string) error
	Get(ctx context.Context, rng string) ([][]any, error)
	Clear(ctx context.Context, rng string) error
	Update(ctx context.Context, rng string, values [][]any) error
}

type Client struct {
	values valuesAPI
	// sheetBase is the sheet name without the year, e.g. "Transactions".
	sheetBase string

	mu sync.Mutex
}

// Ensure interface conformance
var (
	_ ports.MonthExporter = (*Client)(nil)
	_ ports.MonthLister   = (*Client)(nil)
)

// NewFromConfig creates a Sheets client authorized with the stored OAuth
// token.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.GoogleSpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	httpClient, err := googleauth.FromConfig(cfg).HTTPClient(ctx, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets auth: %w", err)
	}
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return newClient(&serviceValues{svc: svc, spreadsheetID: spreadsheetID}, cfg.GoogleSheetName), nil
}

func newClient(values valuesAPI, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Transactions"
	}
	return &Client{values: values, sheetBase: sheetBase}
}

// SheetName returns the sheet a year's rows are written to.
func (c *Client) SheetName(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

// ExportMonth replaces the rows of year/month with rows and leaves every
// other row of the sheet untouched. The header row is rewritten.
func (c *Client) ExportMonth(ctx context.Context, year, month int, rows []ports.Row) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("invalid month: %d", month)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sheet := c.SheetName(year)
	if err := c.values.EnsureSheet(ctx, sheet); err != nil {
		return "", fmt.Errorf("ensure sheet %s: %w", sheet, err)
	}
	fullRange := fmt.Sprintf("%s!A:G", sheet)
	existing, err := c.values.Get(ctx, fullRange)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fullRange, err)
	}

	out := [][]any{headerValues()}
	kept := 0
	for i, raw := range existing {
		cols := toStrings(raw)
		if i == 0 && isHeader(cols) {
			continue
		}
		if r, ok := ports.ParseRow(cols); ok && r.InMonth(year, month) {
			continue
		}
		if isBlank(cols) {
			continue
		}
		out = append(out, raw)
		kept++
	}
	for _, r := range rows {
		out = append(out, r.Values())
	}

	if err := c.values.Clear(ctx, fullRange); err != nil {
		return "", fmt.Errorf("clear %s: %w", fullRange, err)
	}
	ref := fmt.Sprintf("%s!A1:G%d", sheet, len(out))
	if err := c.values.Update(ctx, ref, out); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}

	slog.InfoContext(ctx, "Exported month to Google Sheets",
		"sheet", sheet,
		"month", month,
		"rows", len(rows),
		"kept", kept)
	return ref, nil
}

// ListMonth reads the exported rows of year/month.
func (c *Client) ListMonth(ctx context.Context, year, month int) ([]ports.Row, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	rng := fmt.Sprintf("%s!A:G", c.SheetName(year))
	values, err := c.values.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []ports.Row
	for _, raw := range values {
		if r, ok := ports.ParseRow(toStrings(raw)); ok && r.InMonth(year, month) {
			out = append(out, r)
		}
	}
	return out, nil
}

func headerValues() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

func isHeader(cols []string) bool {
	return len(cols) > 0 && strings.EqualFold(cols[0], ports.Header[0])
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// serviceValues implements valuesAPI over the real Sheets service.
type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) EnsureSheet(ctx context.Context, title string) error {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Created sheet", "title", title)
	return nil
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s *serviceValues) Update(ctx context.Context, rng string, values [][]any) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}
