package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/freightflow/internal/model"
	"github.com/Veraticus/freightflow/internal/pivot"
	"github.com/Veraticus/freightflow/internal/rollup"
	"github.com/Veraticus/freightflow/internal/table"
)

// Column names of the trip export.
const (
	ColTrip      = "Tripnr"
	ColClient    = "Client"
	ColDate      = "Date"
	ColArrival   = "Arrival"
	ColDeparture = "Departure"
	ColLM        = "LM"
)

// Derived fields of the waiting report.
const (
	FieldWait = "wait_hours"
	fieldDay  = "day"
)

// Waiting reports wait hours and load meters based on unique trips.
type Waiting struct{}

// NewWaiting returns the waiting report.
func NewWaiting() *Waiting {
	return &Waiting{}
}

// Name implements Variant.
func (w *Waiting) Name() string {
	return "waiting"
}

// Schema implements Variant.
func (w *Waiting) Schema() table.Schema {
	return table.Schema{
		Required: []string{ColTrip, ColClient, ColDate, ColArrival, ColDeparture, ColLM},
		Numeric:  []string{ColLM},
		Dates:    []string{ColDate},
	}
}

// Build implements Variant.
func (w *Waiting) Build(t *table.Table) (*Report, error) {
	if t.Empty() {
		return noDataReport("The input contains no records."), nil
	}

	recs, anomalies, err := rollup.DeriveSpan(t.Records, ColArrival, ColDeparture, FieldWait)
	if err != nil {
		return nil, err
	}
	recs, err = withCalendar(recs, ColDate)
	if err != nil {
		return nil, err
	}

	trips, err := rollup.Rollup(recs, rollup.Spec{
		Keys: []string{ColTrip},
		Fields: []rollup.Field{
			{Source: FieldWait, Policy: rollup.PolicyMax},
			{Source: model.FieldPeriod, Policy: rollup.PolicyFirst},
			{Source: ColClient, Policy: rollup.PolicyFirst},
			{Source: ColDate, Policy: rollup.PolicyFirst},
			{Source: fieldDay, Policy: rollup.PolicyFirst},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("trip rollup: %w", err)
	}
	if len(trips) == 0 {
		return noDataReport(fmt.Sprintf("No records carry a %q.", ColTrip)), nil
	}

	rep := newReport()
	if anomalies > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf(
			"%d row(s) had a missing time or a departure before arrival; their wait was counted as 0 hours", anomalies))
	}

	builders := []func() (Section, error){
		func() (Section, error) { return waitPerMonth(trips) },
		func() (Section, error) { return waitPerClient(trips) },
		func() (Section, error) { return loadMetersPerClient(recs) },
		func() (Section, error) { return tripsPerDay(recs, trips) },
		func() (Section, error) { return tripsPerClientMonth(trips) },
	}
	for _, build := range builders {
		s, err := build()
		if err != nil {
			return nil, err
		}
		rep.Sections = append(rep.Sections, s)
	}

	return rep, nil
}

func waitPerMonth(trips []model.Record) (Section, error) {
	title := "Average wait per month"
	columns := []string{"Month", "Avg. wait (h)"}

	monthly, err := rollup.Rollup(trips, rollup.Spec{
		Keys:   []string{model.FieldPeriod},
		Fields: []rollup.Field{{Source: FieldWait, Policy: rollup.PolicyMean}},
	})
	if err != nil {
		return Section{}, err
	}
	if len(monthly) == 0 {
		return noDataSection(title, "No dated trips.", columns), nil
	}
	sortByText(monthly, model.FieldPeriod)

	rows := make([][]Cell, 0, len(monthly))
	for _, m := range monthly {
		rows = append(rows, []Cell{
			periodCell(m.Get(model.FieldPeriod)),
			hoursCell(m.Get(FieldWait).FloatOrZero()),
		})
	}
	return section(title, columns, rows), nil
}

func waitPerClient(trips []model.Record) (Section, error) {
	title := "Average wait per client"
	columns := []string{"Klant", "Avg. wait (h)"}

	clients, err := rollup.Rollup(trips, rollup.Spec{
		Keys:   []string{ColClient},
		Fields: []rollup.Field{{Source: FieldWait, Policy: rollup.PolicyMean}},
	})
	if err != nil {
		return Section{}, err
	}
	if len(clients) == 0 {
		return noDataSection(title, "No trips with a client.", columns), nil
	}
	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].Get(FieldWait).FloatOrZero() > clients[j].Get(FieldWait).FloatOrZero()
	})

	rows := make([][]Cell, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []Cell{
			valueCell(c.Get(ColClient)),
			hoursCell(c.Get(FieldWait).FloatOrZero()),
		})
	}
	return section(title, columns, rows), nil
}

// loadMetersPerClient sums load meters over every row and averages them over
// unique trips.
func loadMetersPerClient(recs []model.Record) (Section, error) {
	title := "Load meters per client per month"
	columns := []string{"Month", "Klant", "Total LM", "Avg. LM per trip"}

	perTrip, err := rollup.Rollup(recs, rollup.Spec{
		Keys:   []string{ColTrip, ColClient, model.FieldPeriod},
		Fields: []rollup.Field{{Source: ColLM, Policy: rollup.PolicySum}},
	})
	if err != nil {
		return Section{}, err
	}
	averages, err := rollup.Rollup(perTrip, rollup.Spec{
		Keys:   []string{model.FieldPeriod, ColClient},
		Fields: []rollup.Field{{Source: ColLM, As: "avg_lm", Policy: rollup.PolicyMean}},
	})
	if err != nil {
		return Section{}, err
	}
	totals, err := rollup.Rollup(recs, rollup.Spec{
		Keys:   []string{model.FieldPeriod, ColClient},
		Fields: []rollup.Field{{Source: ColLM, As: "total_lm", Policy: rollup.PolicySum}},
	})
	if err != nil {
		return Section{}, err
	}
	if len(totals) == 0 {
		return noDataSection(title, "No dated rows with a client.", columns), nil
	}

	avgByKey := index(averages, model.FieldPeriod, ColClient)
	sortByText(totals, model.FieldPeriod)

	rows := make([][]Cell, 0, len(totals))
	for _, tot := range totals {
		avg, ok := avgByKey[keyOf(tot, model.FieldPeriod, ColClient)]
		if !ok {
			continue
		}
		rows = append(rows, []Cell{
			periodCell(tot.Get(model.FieldPeriod)),
			valueCell(tot.Get(ColClient)),
			quantityCell(tot.Get("total_lm").FloatOrZero(), ""),
			quantityCell(avg.Get("avg_lm").FloatOrZero(), ""),
		})
	}
	return section(title, columns, rows), nil
}

func tripsPerDay(recs, trips []model.Record) (Section, error) {
	title := "Trips and load meters per day"
	columns := []string{"Date", "Trips", "Total LM"}

	dailyTrips, err := rollup.Rollup(trips, rollup.Spec{Keys: []string{fieldDay}})
	if err != nil {
		return Section{}, err
	}
	dailyLM, err := rollup.Rollup(recs, rollup.Spec{
		Keys:   []string{fieldDay},
		Fields: []rollup.Field{{Source: ColLM, Policy: rollup.PolicySum}},
	})
	if err != nil {
		return Section{}, err
	}
	if len(dailyTrips) == 0 {
		return noDataSection(title, "No dated trips.", columns), nil
	}

	lmByDay := index(dailyLM, fieldDay)
	sortByText(dailyTrips, fieldDay)

	rows := make([][]Cell, 0, len(dailyTrips))
	for _, d := range dailyTrips {
		lm, ok := lmByDay[keyOf(d, fieldDay)]
		if !ok {
			continue
		}
		rows = append(rows, []Cell{
			valueCell(d.Get(fieldDay)),
			countCell(int(d.Get(model.FieldRows).FloatOrZero())),
			quantityCell(lm.Get(ColLM).FloatOrZero(), ""),
		})
	}
	return section(title, columns, rows), nil
}

func tripsPerClientMonth(trips []model.Record) (Section, error) {
	title := "Unique trips per client and month"

	pt, err := pivot.Build(trips, pivot.Spec{
		RowKey:    ColClient,
		DateField: ColDate,
		Percent:   true,
	})
	if err != nil {
		return Section{}, err
	}

	columns := []string{"Klant"}
	for _, p := range pt.Periods {
		columns = append(columns, p.String()+" Trips", p.String()+" P")
	}
	if len(pt.Rows) == 0 {
		return noDataSection(title, "No dated trips with a client.", columns), nil
	}

	rows := make([][]Cell, 0, len(pt.Rows))
	for _, pr := range pt.Rows {
		row := []Cell{textCell(pr.Key)}
		for _, c := range pr.Cells {
			row = append(row, countCell(c.Count), percentCell(c.Percent))
		}
		rows = append(rows, row)
	}
	return section(title, columns, rows), nil
}

// withCalendar appends the month and day of the date field to dated records.
func withCalendar(recs []model.Record, dateField string) ([]model.Record, error) {
	out := make([]model.Record, len(recs))
	for i, rec := range recs {
		v := rec.Get(dateField)
		if v.Kind != model.KindTime {
			out[i] = rec
			continue
		}

		var err error
		rec, err = rec.With(model.FieldPeriod, model.Text(model.PeriodOf(v.Time).String()))
		if err != nil {
			return nil, err
		}
		rec, err = rec.With(fieldDay, model.Text(v.Time.Format("2006-01-02")))
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func periodCell(v model.Value) Cell {
	p, err := model.ParsePeriod(v.String())
	if err != nil {
		return valueCell(v)
	}
	return Cell{Value: p.String(), Display: p.Start().Format("January 2006")}
}

func keyOf(rec model.Record, fields ...string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = rec.Get(f).String()
	}
	return strings.Join(parts, "\x1f")
}

func index(recs []model.Record, fields ...string) map[string]model.Record {
	out := make(map[string]model.Record, len(recs))
	for _, rec := range recs {
		out[keyOf(rec, fields...)] = rec
	}
	return out
}

// sortByText orders records by a text field, keeping input order for ties.
func sortByText(recs []model.Record, field string) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Get(field).String() < recs[j].Get(field).String()
	})
}
