package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/freightflow/internal/common"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeWorkbook(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		header  []string
		rows    int
	}{
		{"comma", "Klant,Bedrag\nA,10\nB,20\n", []string{"Klant", "Bedrag"}, 2},
		{"semicolon with decimal comma", "Klant;Bedrag\nA;10,5\n", []string{"Klant", "Bedrag"}, 1},
		{"byte order mark", "\ufeffKlant,Bedrag\nA,1\n", []string{"Klant", "Bedrag"}, 1},
		{"leading blank line", "\n,\nKlant,Bedrag\nA,1\n", []string{"Klant", "Bedrag"}, 1},
		{"ragged rows", "Klant,Bedrag,Status\nA,1\n", []string{"Klant", "Bedrag", "Status"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ReadCSV("test.csv", strings.NewReader(tt.content))
			require.NoError(t, err)
			assert.Equal(t, "test.csv", b.Source)
			assert.Equal(t, tt.header, b.Header)
			assert.Len(t, b.Rows, tt.rows)
		})
	}

	b, err := ReadCSV("test.csv", strings.NewReader("Klant;Bedrag\nA;10,5\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "10,5"}, b.Rows[0])

	_, err = ReadCSV("empty.csv", strings.NewReader(""))
	assert.True(t, errors.Is(err, common.ErrEmptySheet))
}

func TestLoader_Workbook(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "jan.xlsx", [][]any{
		{"Klantnaam", "Laaddatum", "Prest. Eigen Bedrijf"},
		{"A", 45296, 100.5},
	})

	b, err := NewLoader(nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jan.xlsx", b.Source)
	assert.Equal(t, []string{"Klantnaam", "Laaddatum", "Prest. Eigen Bedrijf"}, b.Header)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, []string{"A", "45296", "100.5"}, b.Rows[0])
}

func TestLoader_NamedSheet(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "jan.xlsx", [][]any{{"Klant"}, {"A"}})

	l := NewLoader(nil)
	l.Sheet = "Missing"
	_, err := l.LoadFile(path)
	assert.Error(t, err)
}

func TestLoader_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "Klant,Bedrag\nA,1\n")
	empty := writeFile(t, dir, "empty.csv", "")
	other := writeFile(t, dir, "notes.txt", "hello")
	missing := filepath.Join(dir, "missing.xlsx")

	var progress []int
	l := NewLoader(nil)
	l.Progress = func(done int) { progress = append(progress, done) }

	batches, warnings, err := l.LoadFiles(context.Background(), []string{empty, good, other, missing})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "good.csv", batches[0].Source)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	require.Len(t, warnings, 3)
	assert.Equal(t, empty, warnings[0].Path)
	assert.True(t, errors.Is(warnings[0].Err, common.ErrEmptySheet))
	assert.True(t, errors.Is(warnings[1].Err, common.ErrUnsupportedFile))
	assert.Contains(t, warnings[2].String(), "missing.xlsx")
}

func TestLoader_NoValidFiles(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.csv", "")

	_, warnings, err := NewLoader(nil).LoadFiles(context.Background(), []string{bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoValidFiles))
	assert.Len(t, warnings, 1)
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewLoader(nil).LoadFiles(ctx, []string{"a.csv"})
	assert.True(t, errors.Is(err, context.Canceled))
}
