// Package ingest reads spreadsheet and CSV files into raw row batches.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/table"
)

// FileWarning reports an input file that was skipped.
type FileWarning struct {
	Err  error
	Path string
}

func (w FileWarning) String() string {
	return fmt.Sprintf("could not read %s: %v (file skipped)", filepath.Base(w.Path), w.Err)
}

// Loader reads input files one after another.
type Loader struct {
	logger *slog.Logger
	// Progress, when set, is called after each file with the number of files done.
	Progress func(done int)
	// Sheet selects the worksheet to read; empty means the first sheet.
	Sheet string
}

// NewLoader creates a loader logging to the given logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadFiles reads every path in order. Unreadable files are reported as
// warnings and skipped; only the absence of any readable file is an error.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]table.RawBatch, []FileWarning, error) {
	batches := make([]table.RawBatch, 0, len(paths))
	var warnings []FileWarning

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		batch, err := l.LoadFile(path)
		if err != nil {
			w := FileWarning{Path: path, Err: err}
			warnings = append(warnings, w)
			l.logger.Warn("Skipping unreadable file", "file", path, "error", err)
		} else {
			batches = append(batches, batch)
			l.logger.Info("Read input file", "file", path, "rows", len(batch.Rows))
		}

		if l.Progress != nil {
			l.Progress(i + 1)
		}
	}

	if len(batches) == 0 {
		return nil, warnings, fmt.Errorf("%w: tried %d file(s)", common.ErrNoValidFiles, len(paths))
	}

	return batches, warnings, nil
}

// LoadFile reads a single file, choosing the reader by extension.
func (l *Loader) LoadFile(path string) (table.RawBatch, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return l.loadWorkbook(path)
	case ".csv":
		return loadCSV(path)
	default:
		return table.RawBatch{}, fmt.Errorf("%w: %s", common.ErrUnsupportedFile, filepath.Ext(path))
	}
}

func (l *Loader) loadWorkbook(path string) (table.RawBatch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table.RawBatch{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			l.logger.Debug("Failed to close workbook", "file", path, "error", cerr)
		}
	}()

	sheet := l.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return table.RawBatch{}, common.ErrEmptySheet
		}
		sheet = sheets[0]
	}

	// Raw values keep dates as serial numbers instead of locale-formatted text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return table.RawBatch{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return toBatch(filepath.Base(path), rows)
}

func loadCSV(path string) (table.RawBatch, error) {
	file, err := os.Open(path) //nolint:gosec // paths come from the command line
	if err != nil {
		return table.RawBatch{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadCSV(filepath.Base(path), file)
}

// ReadCSV reads comma- or semicolon-separated rows from r.
func ReadCSV(source string, r io.Reader) (table.RawBatch, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return table.RawBatch{}, fmt.Errorf("failed to read file: %w", err)
	}
	text := strings.TrimPrefix(string(content), "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.Comma = detectDelimiter(text)

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table.RawBatch{}, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rows = append(rows, row)
	}

	return toBatch(source, rows)
}

// detectDelimiter picks ';' when the header line uses it more than ','.
func detectDelimiter(text string) rune {
	header := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header = text[:i]
	}
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

// toBatch treats the first non-empty row as the header.
func toBatch(source string, rows [][]string) (table.RawBatch, error) {
	for i, row := range rows {
		if blank(row) {
			continue
		}
		return table.RawBatch{
			Source: source,
			Header: row,
			Rows:   rows[i+1:],
		}, nil
	}
	return table.RawBatch{}, common.ErrEmptySheet
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
