// Package google exports report sheets to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesops/internal/log"
	"salesops/internal/store"
)

// Exporter writes each report to its own tab, replacing the previous
// contents of that tab.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger

	mu   sync.Mutex
	tabs map[string]bool
}

var _ store.ReportExporter = (*Exporter)(nil)

// NewFromEnv creates an exporter from GOOGLE_SPREADSHEET_ID and either
// GOOGLE_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := Credentials(os.Getenv("GOOGLE_CREDENTIALS_JSON"), os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	if err != nil {
		return nil, err
	}
	return New(ctx, spreadsheetID, logger, creds)
}

// Credentials returns the client option for service account credentials
// given inline or as a file path. Inline JSON wins.
func Credentials(inlineJSON, file string) (goption.ClientOption, error) {
	inlineJSON, file = strings.TrimSpace(inlineJSON), strings.TrimSpace(file)
	switch {
	case inlineJSON != "":
		return goption.WithCredentialsJSON([]byte(inlineJSON)), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return goption.WithCredentialsJSON(data), nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS)")
}

func New(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentSheets)
	}
	opts = append([]goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
		tabs:          make(map[string]bool),
	}, nil
}

// ExportReport replaces the tab named sheet.Title with the sheet's header
// and rows, creating the tab on first use.
func (e *Exporter) ExportReport(ctx context.Context, sheet store.Sheet) error {
	if strings.TrimSpace(sheet.Title) == "" {
		return errors.New("sheet title is required")
	}
	if err := e.ensureTab(ctx, sheet.Title); err != nil {
		return err
	}

	tab := quoteTitle(sheet.Title)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, tab, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", sheet.Title, err)
	}

	vr := &gsheet.ValueRange{Values: toValues(sheet)}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, tab+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", sheet.Title, err)
	}

	e.logger.DebugContext(ctx, "Sheet written", "title", sheet.Title, "rows", len(sheet.Rows))
	return nil
}

func (e *Exporter) ensureTab(ctx context.Context, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tabs[title] {
		return nil
	}

	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			e.tabs[s.Properties.Title] = true
		}
	}
	if e.tabs[title] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	e.tabs[title] = true
	e.logger.InfoContext(ctx, "Sheet tab created", "title", title)
	return nil
}

func toValues(sheet store.Sheet) [][]any {
	values := make([][]any, 0, len(sheet.Rows)+1)
	if len(sheet.Header) > 0 {
		header := make([]any, len(sheet.Header))
		for i, h := range sheet.Header {
			header[i] = h
		}
		values = append(values, header)
	}
	for _, row := range sheet.Rows {
		if row == nil {
			row = []any{}
		}
		values = append(values, row)
	}
	return values
}

// quoteTitle quotes a tab name for use in A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
