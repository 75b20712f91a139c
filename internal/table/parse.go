package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02-01-2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"2-1-2006",
	"2/1/2006",
}

// ParseNumber parses a numeric cell. Currency signs, spaces and a decimal
// comma are accepted ("€ 1.234,50" parses as 1234.5).
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "€")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, finite(f)
	}

	var normalized string
	if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
		// 1,234.50
		normalized = strings.ReplaceAll(s, ",", "")
	} else {
		// 1.234,50
		normalized = strings.ReplaceAll(s, ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
	}
	if f, err := strconv.ParseFloat(normalized, 64); err == nil {
		return f, finite(f)
	}

	return 0, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ParseDate parses a date cell written as text or as a spreadsheet serial number.
func ParseDate(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", s, err)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
