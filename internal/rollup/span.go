package rollup

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/freightflow/internal/model"
)

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// Span returns the hours between two time-of-day values of one record.
// Missing sides, unparsable values and an end before the start yield (0, false).
func Span(start, end model.Value) (float64, bool) {
	from, ok := clock(start)
	if !ok {
		return 0, false
	}
	to, ok := clock(end)
	if !ok {
		return 0, false
	}
	if to < from {
		return 0, false
	}
	return (to - from).Hours(), true
}

// DeriveSpan appends the span between the start and end fields to every record
// under the name as. It returns the number of records whose span was anomalous
// and therefore set to zero.
func DeriveSpan(records []model.Record, start, end, as string) ([]model.Record, int, error) {
	out := make([]model.Record, len(records))
	anomalies := 0

	for i, rec := range records {
		hours, ok := Span(rec.Get(start), rec.Get(end))
		if !ok {
			anomalies++
			slog.Debug("Anomalous time span, using zero",
				"record", rec.Origin(),
				start, rec.Get(start).String(),
				end, rec.Get(end).String())
		}

		derived, err := rec.With(as, model.Number(hours))
		if err != nil {
			return nil, 0, fmt.Errorf("derive %s for %s: %w", as, rec.Origin(), err)
		}
		out[i] = derived
	}

	if anomalies > 0 {
		slog.Warn("Records with missing or negative time spans were set to zero",
			"field", as,
			"records", anomalies)
	}

	return out, anomalies, nil
}

// clock converts a value to an offset from midnight.
func clock(v model.Value) (time.Duration, bool) {
	switch v.Kind {
	case model.KindTime:
		return sinceMidnight(v.Time), true
	case model.KindNumber:
		return fraction(v.Num)
	case model.KindText:
		s := strings.TrimSpace(v.Str)
		for _, layout := range clockLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return sinceMidnight(t), true
			}
		}
		if f, ok := v.Float(); ok {
			return fraction(f)
		}
	}
	return 0, false
}

// fraction reads a spreadsheet time stored as a fraction of a day. Datetime
// serials (whole days plus a fraction) keep only their time of day.
func fraction(f float64) (time.Duration, bool) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f -= math.Floor(f)
	return time.Duration(f * float64(24*time.Hour)).Round(time.Second), true
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
