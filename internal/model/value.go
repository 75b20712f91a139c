// Package model defines the core data structures shared by the report pipeline.
package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies what a Value holds.
type Kind int

// Value kinds.
const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindTime
)

// Value is a single typed cell of a record.
type Value struct {
	Time time.Time
	Str  string
	Num  float64
	Kind Kind
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Text returns a text value. Blank strings become an empty value.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{Kind: KindText, Str: s}
}

// Timestamp returns a time value. The zero time becomes an empty value.
func Timestamp(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{Kind: KindTime, Time: t}
}

// IsEmpty reports whether the value carries nothing.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// Float returns the numeric interpretation of the value.
// Text is parsed after trimming and must be finite; anything else that is not a number yields false.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatOrZero returns Float, substituting zero for non-numeric values.
func (v Value) FloatOrZero() float64 {
	f, _ := v.Float()
	return f
}

// String renders the value for display and for use as a grouping key.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Str
	case KindTime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Equal reports whether two values hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindText:
		return v.Str == o.Str
	case KindTime:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}
