package model

import (
	"fmt"
	"time"
)

// Period is a calendar month bucket.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses the "2006-01" form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// PeriodsOfYear returns the given months of a year in chronological order.
// An empty month list selects nothing.
func PeriodsOfYear(year int, months []int) []Period {
	seen := make(map[int]bool, len(months))
	periods := make([]Period, 0, len(months))
	for m := 1; m <= 12; m++ {
		for _, want := range months {
			if want == m && !seen[m] {
				seen[m] = true
				periods = append(periods, Period{Year: year, Month: time.Month(m)})
			}
		}
	}
	return periods
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or 1 ordering periods chronologically.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether p is earlier than o.
func (p Period) Before(o Period) bool {
	return p.Compare(o) < 0
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}
