package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/report"
)

const (
	summaryTab     = "Summary"
	maxTitleLength = 100
)

// Writer exports reports to a Google spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	url     string
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(service, config, logger), nil
}

func newWriter(service *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{service: service, config: config, logger: logger}
}

// URL returns the address of the spreadsheet written last.
func (w *Writer) URL() string {
	return w.url
}

// tab is the content of one worksheet.
type tab struct {
	section *report.Section
	title   string
	values  [][]any
}

// Write replaces the summary tab and one tab per report section.
func (w *Writer) Write(ctx context.Context, rep *report.Report) error {
	tabs := buildTabs(rep)
	w.logger.Info("Starting sheets export",
		"report", rep.Name,
		"run_id", rep.RunID,
		"tabs", len(tabs))

	spreadsheetID, sheetIDs, err := w.getOrCreateSpreadsheet(ctx, tabs)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if err := w.ensureTabs(ctx, spreadsheetID, sheetIDs, tabs); err != nil {
		return fmt.Errorf("failed to create tabs: %w", err)
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	rows := 0
	for _, t := range tabs {
		err := common.WithRetry(ctx, func() error {
			return w.clearTab(ctx, spreadsheetID, t.title)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to clear tab %q: %w", t.title, err)
		}

		err = common.WithRetry(ctx, func() error {
			return w.writeData(ctx, spreadsheetID, t.title, t.values)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write tab %q: %w", t.title, err)
		}
		rows += len(t.values)

		if w.config.EnableFormatting {
			requests := formatRequests(sheetIDs[t.title], t)
			err = common.WithRetry(ctx, func() error {
				return w.batchUpdate(ctx, spreadsheetID, requests)
			}, retryOpts)
			if err != nil {
				// Formatting is cosmetic; the data is already written.
				w.logger.Warn("Failed to apply formatting", "tab", t.title, "error", err)
			}
		}
	}

	w.url = fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID)
	w.logger.Info("Sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", rows)

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet opens the configured spreadsheet or creates one with
// every tab. It returns the sheet id of each existing tab by title.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, tabs []tab) (string, map[string]int64, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return existing.SpreadsheetId, sheetIDs(existing.Sheets), nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
	}
	for _, t := range tabs {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: t.title},
		})
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("Created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, sheetIDs(created.Sheets), nil
}

// ensureTabs adds the tabs missing from the spreadsheet and records their ids.
func (w *Writer) ensureTabs(ctx context.Context, spreadsheetID string, ids map[string]int64, tabs []tab) error {
	var requests []*sheets.Request
	for _, t := range tabs {
		if _, ok := ids[t.title]; ok {
			continue
		}
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: t.title},
			},
		})
	}
	if len(requests) == 0 {
		return nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return err
	}

	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	w.logger.Debug("Added tabs", "tabs", len(requests))

	return nil
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, title string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, quoteTitle(title), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return apiError(err)
}

// writeData writes the values in batches to stay under request size limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, title string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", quoteTitle(title), i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, apiError(err))
		}

		w.logger.Debug("Wrote batch", "tab", title, "start_row", i+1, "rows", len(batch))
	}

	return nil
}

func (w *Writer) batchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return apiError(err)
}

// apiError marks rate limits and server errors as retryable and every other
// API error as permanent.
func apiError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch {
	case gerr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case gerr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}

// buildTabs lays out the summary tab followed by one tab per section.
func buildTabs(rep *report.Report) []tab {
	tabs := []tab{{title: summaryTab, values: summaryValues(rep)}}
	used := map[string]bool{summaryTab: true}

	for i := range rep.Sections {
		s := &rep.Sections[i]
		title := tabTitle(s.Title, used)
		used[title] = true
		tabs = append(tabs, tab{title: title, section: s, values: sectionValues(*s)})
	}
	return tabs
}

func summaryValues(rep *report.Report) [][]any {
	values := [][]any{
		{"Report", rep.Name},
		{"Run", rep.RunID},
		{"Generated", rep.Generated.Format("2006-01-02 15:04:05")},
		{"Status", string(rep.Status)},
	}
	if rep.Notice != "" {
		values = append(values, []any{"Notice", rep.Notice})
	}
	if len(rep.Warnings) > 0 {
		values = append(values, []any{}, []any{"Warnings"})
		for _, w := range rep.Warnings {
			values = append(values, []any{w})
		}
	}
	return values
}

// sectionValues returns the header row and data rows of a section, or its
// notice when it has no data.
func sectionValues(s report.Section) [][]any {
	if s.NoData() {
		return [][]any{{s.Notice}}
	}

	values := make([][]any, 0, len(s.Rows)+1)
	header := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c
	}
	values = append(values, header)

	for _, row := range s.Rows {
		out := make([]any, len(row))
		for i, c := range row {
			out[i] = cellValue(c)
		}
		values = append(values, out)
	}
	return values
}

// cellValue converts a report cell to a value the Sheets API accepts.
func cellValue(c report.Cell) any {
	switch v := c.Value.(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	case float64, int, string:
		return v
	case time.Time:
		return v.Format("2006-01-02")
	case nil:
		return ""
	default:
		return c.Display
	}
}

// formatRequests bolds and freezes the header row, applies euro formatting to
// amount columns and resizes the columns.
func formatRequests(sheetID int64, t tab) []*sheets.Request {
	width := int64(2)
	if len(t.values) > 0 {
		width = max(width, int64(len(t.values[0])))
	}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   width,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	if t.section != nil && !t.section.NoData() {
		for _, col := range euroColumns(*t.section) {
			requests = append(requests, &sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    1,
						EndRowIndex:      int64(len(t.values)),
						StartColumnIndex: int64(col),
						EndColumnIndex:   int64(col + 1),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							NumberFormat: &sheets.NumberFormat{
								Type:    "CURRENCY",
								Pattern: "€#,##0.00",
							},
						},
					},
					Fields: "userEnteredFormat.numberFormat",
				},
			})
		}
	}

	return append(requests, &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   width,
			},
		},
	})
}

// euroColumns returns the indexes of columns holding amounts in the first row.
func euroColumns(s report.Section) []int {
	if len(s.Rows) == 0 {
		return nil
	}
	var cols []int
	for i, c := range s.Rows[0] {
		if _, ok := c.Value.(decimal.Decimal); ok {
			cols = append(cols, i)
		}
	}
	return cols
}

// tabTitle shortens a section title to the Sheets limit and makes it unique.
func tabTitle(title string, used map[string]bool) string {
	base := []rune(strings.TrimSpace(title))
	if len(base) == 0 {
		base = []rune("Section")
	}
	if len(base) > maxTitleLength {
		base = base[:maxTitleLength]
	}

	candidate := string(base)
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		cut := min(len(base), maxTitleLength-len(suffix))
		candidate = string(base[:cut]) + suffix
	}
	return candidate
}

// quoteTitle quotes a tab title for use in A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func sheetIDs(list []*sheets.Sheet) map[string]int64 {
	ids := make(map[string]int64, len(list))
	for _, s := range list {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return ids
}
