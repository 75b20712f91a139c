package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValue_Float(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   float64
		wantOK bool
	}{
		{"number", Number(3.5), 3.5, true},
		{"numeric text", Text(" 2510500000 "), 2510500000, true},
		{"text", Text("ABC"), 0, false},
		{"not a number", Text("NaN"), 0, false},
		{"infinity", Text("Inf"), 0, false},
		{"empty", Value{}, 0, false},
		{"time", Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Float()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"integer", Number(2510500000), "2510500000"},
		{"fraction", Number(3.5), "3.5"},
		{"text", Text("Laden"), "Laden"},
		{"date", Timestamp(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), "2024-01-05"},
		{"datetime", Timestamp(time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC)), "2024-01-05 08:30:00"},
		{"empty", Value{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValue_Constructors(t *testing.T) {
	assert.True(t, Text("   ").IsEmpty())
	assert.True(t, Timestamp(time.Time{}).IsEmpty())
	assert.False(t, Number(0).IsEmpty())
	assert.Equal(t, 0.0, Text("x").FloatOrZero())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Text("1")))
	assert.True(t, Value{}.Equal(Text("")))
	assert.True(t, Timestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
		Equal(Timestamp(time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)))))
}
