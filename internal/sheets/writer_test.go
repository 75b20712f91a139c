package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Name:      "revenue",
		RunID:     "run-1",
		Status:    report.StatusOK,
		Generated: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
		Sections: []report.Section{
			{
				Title:   "Overview per customer and month",
				Status:  report.StatusOK,
				Columns: []string{"Klant", "2024-01 A", "2024-01 O"},
				Rows: [][]report.Cell{{
					{Value: "A", Display: "A"},
					{Value: 3, Display: "3"},
					{Value: decimal.RequireFromString("1234.5"), Display: "€1,234.50"},
				}},
			},
			{
				Title:  "Files with zero revenue",
				Status: report.StatusNoData,
				Notice: "No files with zero revenue.",
			},
		},
		Warnings: []string{"jan.xlsx row 3: not a number"},
	}
}

func TestBuildTabs(t *testing.T) {
	tabs := buildTabs(sampleReport())
	require.Len(t, tabs, 3)

	assert.Equal(t, summaryTab, tabs[0].title)
	assert.Equal(t, []any{"Report", "revenue"}, tabs[0].values[0])
	assert.Equal(t, []any{"jan.xlsx row 3: not a number"}, tabs[0].values[len(tabs[0].values)-1])

	overview := tabs[1]
	assert.Equal(t, "Overview per customer and month", overview.title)
	assert.Equal(t, []any{"Klant", "2024-01 A", "2024-01 O"}, overview.values[0])
	assert.Equal(t, []any{"A", 3, 1234.5}, overview.values[1])

	assert.Equal(t, [][]any{{"No files with zero revenue."}}, tabs[2].values)
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		name string
		cell report.Cell
		want any
	}{
		{"decimal", report.Cell{Value: decimal.RequireFromString("10.25")}, 10.25},
		{"float", report.Cell{Value: 2.5}, 2.5},
		{"int", report.Cell{Value: 7}, 7},
		{"text", report.Cell{Value: "Overig"}, "Overig"},
		{"date", report.Cell{Value: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)}, "2024-01-05"},
		{"empty", report.Cell{}, ""},
		{"other", report.Cell{Value: struct{}{}, Display: "shown"}, "shown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellValue(tt.cell))
		})
	}
}

func TestTabTitle(t *testing.T) {
	used := map[string]bool{"Summary": true}

	assert.Equal(t, "Summary (2)", tabTitle("Summary", used))
	assert.Equal(t, "Section", tabTitle("  ", used))

	long := strings.Repeat("x", 150)
	got := tabTitle(long, used)
	assert.Len(t, got, maxTitleLength)

	used[got] = true
	again := tabTitle(long, used)
	assert.Len(t, again, maxTitleLength)
	assert.True(t, strings.HasSuffix(again, " (2)"))
}

func TestQuoteTitle(t *testing.T) {
	assert.Equal(t, "'Summary'", quoteTitle("Summary"))
	assert.Equal(t, "'Klant''s'", quoteTitle("Klant's"))
}

func TestFormatRequests(t *testing.T) {
	tabs := buildTabs(sampleReport())

	requests := formatRequests(7, tabs[1])
	require.Len(t, requests, 4)
	currency := requests[2].RepeatCell
	require.NotNil(t, currency)
	assert.Equal(t, int64(2), currency.Range.StartColumnIndex)
	assert.Equal(t, "CURRENCY", currency.Cell.UserEnteredFormat.NumberFormat.Type)
	assert.Equal(t, int64(7), currency.Range.SheetId)

	assert.Len(t, formatRequests(8, tabs[2]), 3, "no-data tabs get no number formats")
}

// fakeSheets records the API calls of one export.
type fakeSheets struct {
	updates map[string]sheets.ValueRange
	calls   []string
	nextID  int64
	mu      sync.Mutex
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","sheets":[{"properties":{"sheetId":0,"title":"Summary"}}]}`))
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: "sheet-1"}
		for _, q := range req.Requests {
			if q.AddSheet == nil {
				continue
			}
			f.nextID++
			resp.Replies = append(resp.Replies, &sheets.Response{AddSheet: &sheets.AddSheetResponse{
				Properties: &sheets.SheetProperties{SheetId: f.nextID, Title: q.AddSheet.Properties.Title},
			}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	case r.Method == http.MethodPut:
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates[r.URL.Path] = vr
		_, _ = w.Write([]byte(`{}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeSheets) count(prefix, suffix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) && strings.HasSuffix(c, suffix) {
			n++
		}
	}
	return n
}

func TestWriter_Write(t *testing.T) {
	fake := &fakeSheets{updates: make(map[string]sheets.ValueRange)}
	server := httptest.NewServer(fake)
	defer server.Close()

	ctx := context.Background()
	service, err := sheets.NewService(ctx,
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication())
	require.NoError(t, err)

	config := DefaultConfig()
	config.SpreadsheetID = "sheet-1"
	w := newWriter(service, config, nil)

	require.NoError(t, w.Write(ctx, sampleReport()))
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-1", w.URL())

	assert.Equal(t, 1, fake.count("GET", ""))
	assert.Equal(t, 3, fake.count("POST", ":clear"))
	assert.Equal(t, 3, fake.count("PUT", ""))
	assert.Equal(t, 4, fake.count("POST", ":batchUpdate"), "one call adds tabs, one formats each tab")

	var overview sheets.ValueRange
	for path, vr := range fake.updates {
		if strings.Contains(path, "Overview per customer and month") {
			overview = vr
		}
	}
	require.Len(t, overview.Values, 2)
	assert.Equal(t, []any{"Klant", "2024-01 A", "2024-01 O"}, overview.Values[0])
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		err       error
		name      string
		retryable bool
	}{
		{name: "rate limited", err: &googleapi.Error{Code: http.StatusTooManyRequests}, retryable: true},
		{name: "server error", err: &googleapi.Error{Code: http.StatusBadGateway}, retryable: true},
		{name: "forbidden", err: &googleapi.Error{Code: http.StatusForbidden}, retryable: false},
		{name: "not found", err: &googleapi.Error{Code: http.StatusNotFound}, retryable: false},
		{name: "transport", err: context.DeadlineExceeded, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apiError(tt.err)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.retryable, common.IsRetryable(err))
		})
	}

	assert.NoError(t, apiError(nil))
}
