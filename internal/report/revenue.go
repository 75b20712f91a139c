package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/freightflow/internal/model"
	"github.com/Veraticus/freightflow/internal/pivot"
	"github.com/Veraticus/freightflow/internal/table"
)

// Column names of the revenue export.
const (
	ColCustomer = "Klantnaam"
	ColLoadDate = "Laaddatum"
	ColRevenue  = "Prest. Eigen Bedrijf"
	ColStatus   = "Dossier Fin. Status"
	ColDossier  = "Dossiernr"
)

// DefaultExcludedStatus is the financial status code of files left out of the revenue report.
const DefaultExcludedStatus = 20

// PeriodFilter selects the months shown in the overview.
type PeriodFilter struct {
	// Months lists month numbers. Nil selects every month of Year present in the data;
	// an empty non-nil slice selects nothing.
	Months []int
	Year   int
}

// Revenue reports file counts and revenue per customer and month, and lists
// files without revenue.
type Revenue struct {
	// Period restricts the overview columns. Nil shows every month.
	Period *PeriodFilter
	// From and To bound the zero-revenue listing (inclusive, zero is open).
	From          time.Time
	To            time.Time
	ExcludeStatus []float64
	// Percent adds the share of the customer's busiest month per period.
	Percent bool
}

// NewRevenue returns the revenue report with the default status exclusion.
func NewRevenue() *Revenue {
	return &Revenue{ExcludeStatus: []float64{DefaultExcludedStatus}}
}

// Name implements Variant.
func (r *Revenue) Name() string {
	return "revenue"
}

// Schema implements Variant.
func (r *Revenue) Schema() table.Schema {
	return table.Schema{
		Required: []string{ColCustomer, ColLoadDate, ColRevenue, ColStatus},
		Numeric:  []string{ColRevenue},
		Dates:    []string{ColLoadDate},
		Optional: []string{ColDossier},
	}
}

// Build implements Variant.
func (r *Revenue) Build(t *table.Table) (*Report, error) {
	if t.Empty() {
		return noDataReport("The input contains no records."), nil
	}

	kept := t.ExcludeCodes(ColStatus, r.ExcludeStatus...)
	if kept.Empty() {
		return noDataReport(fmt.Sprintf("No records left after excluding %q %s.",
			ColStatus, joinCodes(r.ExcludeStatus))), nil
	}

	rep := newReport()

	overview, err := r.overview(kept)
	if err != nil {
		return nil, err
	}
	rep.Sections = append(rep.Sections, overview)

	zero, err := r.zeroRevenue(kept)
	if err != nil {
		return nil, err
	}
	rep.Sections = append(rep.Sections, zero)

	return rep, nil
}

func (r *Revenue) overview(t *table.Table) (Section, error) {
	title := "Overview per customer and month"

	periods := r.periods(t)
	if periods != nil && len(periods) == 0 {
		return noDataSection(title, "Select at least one month for the overview.", []string{"Klant"}), nil
	}

	pt, err := pivot.Build(t.Records, pivot.Spec{
		RowKey:     ColCustomer,
		DateField:  ColLoadDate,
		ValueField: ColRevenue,
		Periods:    periods,
		Percent:    r.Percent,
		Scope:      pivot.ScopeAll,
	})
	if err != nil {
		return Section{}, fmt.Errorf("overview: %w", err)
	}

	columns := []string{"Klant"}
	for _, p := range pt.Periods {
		columns = append(columns, p.String()+" A", p.String()+" O")
		if r.Percent {
			columns = append(columns, p.String()+" P")
		}
	}
	columns = append(columns, "Total A", "Total O")
	if len(pt.Rows) == 0 {
		return noDataSection(title, "No dated records to summarize.", columns), nil
	}

	rows := make([][]Cell, 0, len(pt.Rows))
	for _, pr := range pt.Rows {
		row := []Cell{textCell(pr.Key)}
		for _, c := range pr.Cells {
			row = append(row, countCell(c.Count), euroCell(c.Sum))
			if r.Percent {
				row = append(row, percentCell(c.Percent))
			}
		}
		count, sum := pr.Total()
		row = append(row, countCell(count), euroCell(sum))
		rows = append(rows, row)
	}

	return section(title, columns, rows), nil
}

// periods resolves the period filter against the data. Nil means no filter.
func (r *Revenue) periods(t *table.Table) []model.Period {
	if r.Period == nil {
		return nil
	}
	if r.Period.Months != nil {
		return model.PeriodsOfYear(r.Period.Year, r.Period.Months)
	}

	present := make(map[int]bool)
	for _, rec := range t.Records {
		v := rec.Get(ColLoadDate)
		if v.Kind == model.KindTime && v.Time.Year() == r.Period.Year {
			present[int(v.Time.Month())] = true
		}
	}
	months := make([]int, 0, len(present))
	for m := range present {
		months = append(months, m)
	}
	sort.Ints(months)
	return model.PeriodsOfYear(r.Period.Year, months)
}

func (r *Revenue) zeroRevenue(t *table.Table) (Section, error) {
	title := "Files with zero revenue"

	columns := []string{ColCustomer, ColLoadDate, ColRevenue, ColStatus}
	if t.Has(ColDossier) {
		columns = append([]string{ColDossier}, columns...)
	}

	zero := t.Filter(func(rec model.Record) bool {
		return rec.Get(ColRevenue).FloatOrZero() == 0
	})
	if zero.Empty() {
		return noDataSection(title, "No files with zero revenue.", columns), nil
	}

	if !r.From.IsZero() || !r.To.IsZero() {
		ranged, err := zero.Between(ColLoadDate, r.From, r.To)
		if err != nil {
			return Section{}, fmt.Errorf("zero revenue listing: %w", err)
		}
		if ranged.Empty() {
			notice := fmt.Sprintf("No files with zero revenue between %s and %s.",
				formatBound(r.From), formatBound(r.To))
			if first, last, err := zero.DateSpan(ColLoadDate); err == nil {
				notice += fmt.Sprintf(" Zero-revenue files run from %s to %s.",
					formatBound(first), formatBound(last))
			}
			return noDataSection(title, notice, columns), nil
		}
		zero = ranged
	}

	rows := make([][]Cell, 0, zero.Len())
	for _, rec := range zero.Records {
		row := make([]Cell, 0, len(columns))
		for _, col := range columns {
			v := rec.Get(col)
			if col == ColLoadDate && v.Kind == model.KindTime {
				row = append(row, dateCell(v.Time))
				continue
			}
			row = append(row, valueCell(v))
		}
		rows = append(rows, row)
	}

	return section(title, columns, rows), nil
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "…"
	}
	return t.Format("2006-01-02")
}

func joinCodes(codes []float64) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = model.Number(c).String()
	}
	return strings.Join(parts, ", ")
}
