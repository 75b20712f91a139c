// Package table normalizes raw spreadsheet rows into typed records.
package table

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/model"
)

// RawBatch is the untyped content of one input file.
type RawBatch struct {
	Source string
	Header []string
	Rows   [][]string
}

// Schema declares which columns a report needs and how to type them.
type Schema struct {
	Required []string
	Numeric  []string
	Dates    []string
	Optional []string
}

// SchemaError lists every required column absent from the input.
type SchemaError struct {
	Missing []string
	Sources []string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: %s", common.ErrMissingColumns, strings.Join(e.Missing, ", "))
	if len(e.Sources) > 0 {
		msg += fmt.Sprintf(" (files: %s)", strings.Join(e.Sources, ", "))
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return common.ErrMissingColumns
}

// Warning records a cell that could not be parsed and was replaced.
type Warning struct {
	Source string
	Column string
	Value  string
	Reason string
	Line   int
}

func (w Warning) String() string {
	return fmt.Sprintf("%s row %d, column %q: %s (%q)", w.Source, w.Line, w.Column, w.Reason, w.Value)
}

// Table is the combined, typed record set of one analysis run.
type Table struct {
	columns  map[string]bool
	Records  []model.Record
	Warnings []Warning
	Columns  []string
}

// Load concatenates batches in order and types them against the schema.
// Missing required columns fail before any record is built.
func Load(batches []RawBatch, schema Schema) (*Table, error) {
	t := &Table{columns: make(map[string]bool)}

	for _, b := range batches {
		for _, col := range b.Header {
			col = strings.TrimSpace(col)
			if col == "" || t.columns[col] {
				continue
			}
			t.columns[col] = true
			t.Columns = append(t.Columns, col)
		}
	}

	if err := t.validate(schema, batches); err != nil {
		return nil, err
	}

	numeric := toSet(schema.Numeric)
	dates := toSet(schema.Dates)

	for _, b := range batches {
		header := make([]string, len(b.Header))
		for i, col := range b.Header {
			header[i] = strings.TrimSpace(col)
		}

		for i, row := range b.Rows {
			if isBlank(row) {
				continue
			}
			line := i + 2 // header is line 1
			fields := make(map[string]model.Value, len(header))
			for j, col := range header {
				if col == "" {
					continue
				}
				cell := ""
				if j < len(row) {
					cell = row[j]
				}
				fields[col] = t.convert(b.Source, line, col, cell, numeric[col], dates[col])
			}
			t.Records = append(t.Records, model.NewRecord(b.Source, line, fields))
		}
	}

	if len(t.Warnings) > 0 {
		slog.Warn("Replaced unparsable cells with zero values",
			"cells", len(t.Warnings),
			"first", t.Warnings[0].String())
	}

	slog.Debug("Loaded record table",
		"batches", len(batches),
		"records", len(t.Records),
		"columns", len(t.Columns))

	return t, nil
}

func (t *Table) validate(schema Schema, batches []RawBatch) error {
	var missing []string
	for _, col := range schema.Required {
		if !t.columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sources := make([]string, 0, len(batches))
	for _, b := range batches {
		if b.Source != "" {
			sources = append(sources, b.Source)
		}
	}
	return &SchemaError{Missing: missing, Sources: sources}
}

func (t *Table) convert(source string, line int, col, cell string, numeric, date bool) model.Value {
	switch {
	case numeric:
		f, ok := ParseNumber(cell)
		if !ok {
			if strings.TrimSpace(cell) != "" {
				t.Warnings = append(t.Warnings, Warning{
					Source: source, Line: line, Column: col, Value: cell,
					Reason: "not a number, using 0",
				})
			}
			return model.Number(0)
		}
		return model.Number(f)
	case date:
		if strings.TrimSpace(cell) == "" {
			return model.Value{}
		}
		ts, err := ParseDate(cell)
		if err != nil {
			t.Warnings = append(t.Warnings, Warning{
				Source: source, Line: line, Column: col, Value: cell,
				Reason: "not a date, leaving empty",
			})
			return model.Value{}
		}
		return model.Timestamp(ts)
	default:
		return model.Text(strings.TrimSpace(cell))
	}
}

// Has reports whether the combined input carries the column.
func (t *Table) Has(column string) bool {
	return t.columns[column]
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Empty reports whether no records remain.
func (t *Table) Empty() bool {
	return len(t.Records) == 0
}

// Filter returns a table holding the records for which keep returns true.
func (t *Table) Filter(keep func(model.Record) bool) *Table {
	out := &Table{
		columns:  t.columns,
		Columns:  t.Columns,
		Warnings: t.Warnings,
		Records:  make([]model.Record, 0, len(t.Records)),
	}
	for _, rec := range t.Records {
		if keep(rec) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

// ExcludeCodes drops records whose field equals one of the numeric codes.
// Non-numeric values are kept.
func (t *Table) ExcludeCodes(field string, codes ...float64) *Table {
	if len(codes) == 0 {
		return t
	}
	return t.Filter(func(rec model.Record) bool {
		v, ok := rec.Get(field).Float()
		if !ok {
			return true
		}
		for _, code := range codes {
			if v == code {
				return false
			}
		}
		return true
	})
}

// Between keeps records whose date field falls on a calendar day within
// [from, to]. A zero bound is open. Records without a date are dropped.
func (t *Table) Between(field string, from, to time.Time) (*Table, error) {
	if !from.IsZero() && !to.IsZero() && dayOf(to).Before(dayOf(from)) {
		return nil, fmt.Errorf("%w: %s > %s", common.ErrInvalidDateRange,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	return t.Filter(func(rec model.Record) bool {
		v := rec.Get(field)
		if v.Kind != model.KindTime {
			return false
		}
		day := dayOf(v.Time)
		if !from.IsZero() && day.Before(dayOf(from)) {
			return false
		}
		if !to.IsZero() && day.After(dayOf(to)) {
			return false
		}
		return true
	}), nil
}

// DateSpan returns the earliest and latest value of a date field.
func (t *Table) DateSpan(field string) (minDate, maxDate time.Time, err error) {
	for _, rec := range t.Records {
		v := rec.Get(field)
		if v.Kind != model.KindTime {
			continue
		}
		if minDate.IsZero() || v.Time.Before(minDate) {
			minDate = v.Time
		}
		if maxDate.IsZero() || v.Time.After(maxDate) {
			maxDate = v.Time
		}
	}
	if minDate.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: no dated records in %q", common.ErrNoData, field)
	}
	return minDate, maxDate, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
