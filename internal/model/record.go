package model

import (
	"fmt"

	"github.com/Veraticus/freightflow/internal/common"
)

// Derived field names appended by the pipeline.
const (
	FieldCategory = "category"
	FieldPeriod   = "period"
	FieldRows     = "rows"
)

// Record is one input row. Source fields are fixed at load time; derived
// fields are appended with With and are never reassigned.
type Record struct {
	Fields  map[string]Value
	derived map[string]Value
	Source  string
	Line    int
}

// NewRecord creates a record over the given source fields.
func NewRecord(source string, line int, fields map[string]Value) Record {
	if fields == nil {
		fields = make(map[string]Value)
	}
	return Record{Source: source, Line: line, Fields: fields}
}

// Get returns a field value, looking at derived fields before source fields.
func (r Record) Get(name string) Value {
	if v, ok := r.derived[name]; ok {
		return v
	}
	return r.Fields[name]
}

// Has reports whether the record carries the named field.
func (r Record) Has(name string) bool {
	if _, ok := r.derived[name]; ok {
		return true
	}
	_, ok := r.Fields[name]
	return ok
}

// With returns a copy of the record with a derived field appended.
// Assigning a derived name twice fails.
func (r Record) With(name string, v Value) (Record, error) {
	if _, ok := r.derived[name]; ok {
		return r, fmt.Errorf("%w: %s", common.ErrDerivedFieldSet, name)
	}

	derived := make(map[string]Value, len(r.derived)+1)
	for k, dv := range r.derived {
		derived[k] = dv
	}
	derived[name] = v

	out := r
	out.derived = derived
	return out, nil
}

// Category returns the assigned category, or "" if the record is unclassified.
func (r Record) Category() string {
	return r.Get(FieldCategory).String()
}

// Origin describes where the record came from, for log and error messages.
func (r Record) Origin() string {
	if r.Source == "" {
		return fmt.Sprintf("row %d", r.Line)
	}
	return fmt.Sprintf("%s row %d", r.Source, r.Line)
}
