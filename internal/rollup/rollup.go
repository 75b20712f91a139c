// Package rollup collapses many records per entity into one record per entity.
package rollup

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/freightflow/internal/model"
)

// Policy names how a field is aggregated across the members of a group.
type Policy string

// Aggregation policies.
const (
	// PolicySum adds numeric values. Non-numeric members count as zero.
	PolicySum Policy = "sum"
	// PolicyMean averages numeric values over all members.
	PolicyMean Policy = "mean"
	// PolicyMax keeps the largest numeric value.
	PolicyMax Policy = "max"
	// PolicyFirst keeps the first non-empty value in input order, even when
	// later members disagree. It is empty only when every member is blank.
	PolicyFirst Policy = "first"
	// PolicyCountDistinct counts distinct non-empty values.
	PolicyCountDistinct Policy = "count_distinct"
)

// Field declares the aggregation of one source field.
type Field struct {
	Source string
	As     string
	Policy Policy
}

func (f Field) name() string {
	if f.As != "" {
		return f.As
	}
	return f.Source
}

// Spec describes a rollup: the entity key fields and the per-field policies.
type Spec struct {
	Keys   []string
	Fields []Field
}

// Validate checks that a rollup names a key, uses only known policies and
// leaves the member count field to the rollup itself.
func (s Spec) Validate() error {
	if len(s.Keys) == 0 {
		return fmt.Errorf("rollup needs at least one key field")
	}
	for _, k := range s.Keys {
		if k == model.FieldRows {
			return fmt.Errorf("key field %q collides with the member count", k)
		}
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.name() == model.FieldRows {
			return fmt.Errorf("field %q collides with the member count", f.name())
		}
		switch f.Policy {
		case PolicySum, PolicyMean, PolicyMax, PolicyFirst, PolicyCountDistinct:
		default:
			return fmt.Errorf("field %q: unknown policy %q", f.Source, f.Policy)
		}
		if seen[f.name()] {
			return fmt.Errorf("field %q is produced twice", f.name())
		}
		seen[f.name()] = true
	}
	return nil
}

// group accumulates the members of one entity.
type group struct {
	first    model.Record
	keys     []model.Value
	firsts   []model.Value
	sums     []float64
	maxes    []float64
	distinct []map[string]bool
	count    int
	disagree bool
}

// Rollup returns one record per distinct key tuple, in first-seen order.
// Output records carry the key fields, the aggregated fields and a "rows"
// member count. Records with an empty key are skipped.
func Rollup(records []model.Record, spec Spec) ([]model.Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	groups := make(map[string]*group)
	order := make([]string, 0)
	skipped := 0
	disagreeing := 0

	for _, rec := range records {
		key, values, ok := entityKey(rec, spec.Keys)
		if !ok {
			skipped++
			continue
		}

		g, exists := groups[key]
		if !exists {
			g = &group{
				first:    rec,
				keys:     values,
				firsts:   make([]model.Value, len(spec.Fields)),
				sums:     make([]float64, len(spec.Fields)),
				maxes:    make([]float64, len(spec.Fields)),
				distinct: make([]map[string]bool, len(spec.Fields)),
			}
			groups[key] = g
			order = append(order, key)
		}

		for i, f := range spec.Fields {
			v := rec.Get(f.Source)
			n := v.FloatOrZero()
			switch f.Policy {
			case PolicySum, PolicyMean:
				g.sums[i] += n
			case PolicyMax:
				if g.count == 0 || n > g.maxes[i] {
					g.maxes[i] = n
				}
			case PolicyFirst:
				switch {
				case g.firsts[i].IsEmpty():
					g.firsts[i] = v
				case !v.IsEmpty() && !v.Equal(g.firsts[i]):
					g.disagree = true
				}
			case PolicyCountDistinct:
				if g.distinct[i] == nil {
					g.distinct[i] = make(map[string]bool)
				}
				if !v.IsEmpty() {
					g.distinct[i][v.String()] = true
				}
			}
		}
		g.count++
	}

	if skipped > 0 {
		slog.Warn("Skipped records without an entity key",
			"keys", strings.Join(spec.Keys, ", "),
			"skipped", skipped)
	}

	out := make([]model.Record, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if g.disagree {
			disagreeing++
		}
		out = append(out, g.record(spec))
	}
	if disagreeing > 0 {
		slog.Debug("Entities whose members disagree on a first-value field kept the first value",
			"keys", strings.Join(spec.Keys, ", "),
			"entities", disagreeing)
	}

	slog.Debug("Rolled up records",
		"keys", strings.Join(spec.Keys, ", "),
		"records", len(records),
		"entities", len(out))

	return out, nil
}

func (g *group) record(spec Spec) model.Record {
	fields := make(map[string]model.Value, len(spec.Keys)+len(spec.Fields)+1)
	for i, k := range spec.Keys {
		fields[k] = g.keys[i]
	}

	for i, f := range spec.Fields {
		var v model.Value
		switch f.Policy {
		case PolicySum:
			v = model.Number(g.sums[i])
		case PolicyMean:
			v = model.Number(g.sums[i] / float64(g.count))
		case PolicyMax:
			v = model.Number(g.maxes[i])
		case PolicyFirst:
			v = g.firsts[i]
		case PolicyCountDistinct:
			v = model.Number(float64(len(g.distinct[i])))
		}
		fields[f.name()] = v
	}
	fields[model.FieldRows] = model.Number(float64(g.count))

	return model.NewRecord(g.first.Source, g.first.Line, fields)
}

// entityKey builds the grouping key of a record. Numeric and textual forms of
// the same identifier ("1001" and 1001) share a key.
func entityKey(rec model.Record, keys []string) (string, []model.Value, bool) {
	parts := make([]string, len(keys))
	values := make([]model.Value, len(keys))
	for i, k := range keys {
		v := rec.Get(k)
		if v.IsEmpty() {
			return "", nil, false
		}
		parts[i] = v.String()
		values[i] = v
	}
	return strings.Join(parts, "\x1f"), values, true
}
