// Package report wires the record table, classifier, rollup and pivot into
// the fixed report variants and returns presentation-ready tables.
package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/freightflow/internal/table"
)

// Status tells a caller whether a report or section has content to show.
type Status string

// Status values.
const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

// Cell is one output value with its precomputed display form.
type Cell struct {
	Value   any    `json:"value"`
	Display string `json:"display"`
}

// Section is one output table of a report.
type Section struct {
	Title   string   `json:"title"`
	Status  Status   `json:"status"`
	Notice  string   `json:"notice,omitempty"`
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// NoData reports whether the section should be shown as an empty state.
func (s Section) NoData() bool {
	return s.Status == StatusNoData
}

// Report is the result of one report invocation.
type Report struct {
	Generated time.Time `json:"generated"`
	Name      string    `json:"name"`
	RunID     string    `json:"run_id"`
	Status    Status    `json:"status"`
	Notice    string    `json:"notice,omitempty"`
	Sections  []Section `json:"sections"`
	Warnings  []string  `json:"warnings,omitempty"`
}

// NoData reports whether the whole report has nothing to show.
func (r *Report) NoData() bool {
	return r.Status == StatusNoData
}

// Variant is one fixed report type.
type Variant interface {
	// Name identifies the report.
	Name() string
	// Schema lists the columns the report reads.
	Schema() table.Schema
	// Build computes the report sections from a loaded table.
	Build(t *table.Table) (*Report, error)
}

// Run loads the batches against the variant's schema and builds the report.
func Run(v Variant, batches []table.RawBatch) (*Report, error) {
	runID := uuid.NewString()
	logger := slog.With("report", v.Name(), "run_id", runID)

	t, err := table.Load(batches, v.Schema())
	if err != nil {
		return nil, fmt.Errorf("%s report: %w", v.Name(), err)
	}
	logger.Info("Loaded records", "records", t.Len(), "files", len(batches))

	rep, err := v.Build(t)
	if err != nil {
		return nil, fmt.Errorf("%s report: %w", v.Name(), err)
	}

	rep.RunID = runID
	rep.Name = v.Name()
	for _, w := range t.Warnings {
		rep.Warnings = append(rep.Warnings, w.String())
	}

	logger.Info("Built report",
		"sections", len(rep.Sections),
		"status", rep.Status,
		"warnings", len(rep.Warnings))

	return rep, nil
}

func newReport() *Report {
	return &Report{Status: StatusOK, Generated: time.Now()}
}

func noDataReport(notice string) *Report {
	rep := newReport()
	rep.Status = StatusNoData
	rep.Notice = notice
	return rep
}

func noDataSection(title, notice string, columns []string) Section {
	return Section{Title: title, Status: StatusNoData, Notice: notice, Columns: columns}
}

func section(title string, columns []string, rows [][]Cell) Section {
	if rows == nil {
		rows = [][]Cell{}
	}
	return Section{Title: title, Status: StatusOK, Columns: columns, Rows: rows}
}
