// Package google exports records to a Google Sheets tab through the Sheets
// v4 API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ems/internal/core"
	"ems/internal/log"
	"ems/internal/sheets"
)

var _ sheets.RecordExporter = (*Exporter)(nil)

// Config selects the spreadsheet and credentials. With neither credentials
// field set, Application Default Credentials are used.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	now           func() time.Time
	logger        *log.Logger
}

// New creates an exporter. Extra client options are appended after the
// credentials, so callers may point the client at another endpoint.
func New(ctx context.Context, cfg Config, extra ...goption.ClientOption) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Export"
	}

	var opts []goption.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, goption.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))
	opts = append(opts, extra...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		now:           time.Now,
		logger:        log.ForComponent(log.ComponentSheets),
	}, nil
}

// EnsureHeader writes the header row when the first row is empty.
func (e *Exporter) EnsureHeader(ctx context.Context) error {
	rng := e.headerRange()
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{
		Values: [][]interface{}{toCells(sheets.Header)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	e.logger.InfoContext(ctx, "Export sheet header written", "sheet", e.sheetName)
	return nil
}

func (e *Exporter) AppendRecord(ctx context.Context, rec core.Record, event string) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return e.append(ctx, sheets.RecordRow(rec, event, e.now()))
}

func (e *Exporter) AppendTombstone(ctx context.Context, t sheets.Tombstone) (string, error) {
	return e.append(ctx, sheets.TombstoneRow(t))
}

func (e *Exporter) append(ctx context.Context, row []string) (string, error) {
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, e.dataRange(), &gsheet.ValueRange{
		Values: [][]interface{}{toCells(row)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append row: %w", err)
	}
	if resp.Updates == nil {
		return "", nil
	}
	return resp.Updates.UpdatedRange, nil
}

func (e *Exporter) dataRange() string {
	return fmt.Sprintf("%s!A:%s", e.sheetName, lastColumn())
}

func (e *Exporter) headerRange() string {
	return fmt.Sprintf("%s!A1:%s1", e.sheetName, lastColumn())
}

// lastColumn is the column letter of the final header cell.
func lastColumn() string {
	return string(rune('A' + len(sheets.Header) - 1))
}

func toCells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
