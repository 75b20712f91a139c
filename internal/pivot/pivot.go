// Package pivot builds row-key by calendar-month matrices of counts and sums.
package pivot

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/freightflow/internal/model"
)

// Scope selects which periods feed the percentage denominator.
type Scope int

const (
	// ScopeAll normalizes against the peak count over every observed period,
	// including periods filtered out of the columns.
	ScopeAll Scope = iota
	// ScopeRequested normalizes against the peak count of the requested periods only.
	ScopeRequested
)

// Spec describes one pivot.
type Spec struct {
	RowKey     string
	DateField  string
	ValueField string
	// Periods restricts the columns. Nil means every observed period;
	// an empty non-nil slice means no columns.
	Periods []model.Period
	Scope   Scope
	Percent bool
}

// Cell is one (row-key, period) bucket.
type Cell struct {
	Sum     decimal.Decimal
	Count   int
	Percent int
}

// Row is one row-key with a cell per table period.
type Row struct {
	Key   string
	Cells []Cell
	// Peak is the percentage denominator of the row.
	Peak int
}

// Table is the flattened pivot.
type Table struct {
	Periods []model.Period
	Rows    []Row
	// Skipped counts records left out for lack of a row key or a date.
	Skipped int
}

// Total returns the sum of counts and values over a row's cells.
func (r Row) Total() (int, decimal.Decimal) {
	count := 0
	sum := decimal.Zero
	for _, c := range r.Cells {
		count += c.Count
		sum = sum.Add(c.Sum)
	}
	return count, sum
}

type bucket struct {
	sum   decimal.Decimal
	count int
}

// Build aggregates records into a pivot table. Every row key with at least
// one qualifying record appears, in first-seen order, with a zero cell for
// each period it has no records in.
func Build(records []model.Record, spec Spec) (*Table, error) {
	if spec.RowKey == "" || spec.DateField == "" {
		return nil, fmt.Errorf("pivot needs a row key and a date field")
	}

	matrix := make(map[string]map[model.Period]*bucket)
	keys := make([]string, 0)
	observed := make(map[model.Period]bool)
	skipped := 0

	for _, rec := range records {
		keyValue := rec.Get(spec.RowKey)
		date := rec.Get(spec.DateField)
		if keyValue.IsEmpty() || date.Kind != model.KindTime {
			skipped++
			continue
		}

		key := keyValue.String()
		period := model.PeriodOf(date.Time)
		observed[period] = true

		row, ok := matrix[key]
		if !ok {
			row = make(map[model.Period]*bucket)
			matrix[key] = row
			keys = append(keys, key)
		}

		b, ok := row[period]
		if !ok {
			b = &bucket{sum: decimal.Zero}
			row[period] = b
		}
		b.count++
		if spec.ValueField != "" {
			b.sum = b.sum.Add(decimal.NewFromFloat(rec.Get(spec.ValueField).FloatOrZero()))
		}
	}

	if skipped > 0 {
		slog.Warn("Records without a row key or date were left out of the pivot",
			"row_key", spec.RowKey,
			"date_field", spec.DateField,
			"records", skipped)
	}

	periods := spec.Periods
	if periods == nil {
		periods = make([]model.Period, 0, len(observed))
		for p := range observed {
			periods = append(periods, p)
		}
	} else {
		periods = append([]model.Period(nil), periods...)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	t := &Table{Periods: periods, Rows: make([]Row, 0, len(keys)), Skipped: skipped}
	for _, key := range keys {
		buckets := matrix[key]
		row := Row{Key: key, Cells: make([]Cell, len(periods))}
		row.Peak = peak(buckets, periods, spec.Scope)

		for i, p := range periods {
			cell := Cell{Sum: decimal.Zero}
			if b, ok := buckets[p]; ok {
				cell.Count = b.count
				cell.Sum = b.sum
			}
			if spec.Percent {
				cell.Percent = Percentage(cell.Count, row.Peak)
			}
			row.Cells[i] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// Percentage returns round(100*count/peak), or zero when peak is zero.
func Percentage(count, peak int) int {
	if peak <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(peak)))
}

func peak(buckets map[model.Period]*bucket, periods []model.Period, scope Scope) int {
	best := 0
	if scope == ScopeRequested {
		for _, p := range periods {
			if b, ok := buckets[p]; ok && b.count > best {
				best = b.count
			}
		}
		return best
	}

	for _, b := range buckets {
		if b.count > best {
			best = b.count
		}
	}
	return best
}
