package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/freightflow/internal/model"
)

// FormatEuro renders an amount as "€1,234.56".
func FormatEuro(d decimal.Decimal) string {
	return "€" + groupThousands(d.StringFixed(2))
}

// FormatQuantity renders a measure with two decimals and a unit suffix.
func FormatQuantity(f float64, unit string) string {
	s := groupThousands(strconv.FormatFloat(f, 'f', 2, 64))
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// FormatCount renders a count with thousands separators.
func FormatCount(n int) string {
	return groupThousands(strconv.Itoa(n))
}

// FormatPercent renders a whole percentage as "80 %".
func FormatPercent(p int) string {
	return fmt.Sprintf("%s %%", FormatCount(p))
}

// FormatHours renders hours with two decimals.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

// groupThousands inserts commas into the integer part of a plain decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

func countCell(n int) Cell {
	return Cell{Value: n, Display: FormatCount(n)}
}

func euroCell(d decimal.Decimal) Cell {
	return Cell{Value: d, Display: FormatEuro(d)}
}

func percentCell(p int) Cell {
	return Cell{Value: p, Display: FormatPercent(p)}
}

func quantityCell(f float64, unit string) Cell {
	return Cell{Value: f, Display: FormatQuantity(f, unit)}
}

func hoursCell(h float64) Cell {
	return Cell{Value: h, Display: FormatHours(h)}
}

func textCell(s string) Cell {
	return Cell{Value: s, Display: s}
}

func dateCell(t time.Time) Cell {
	return Cell{Value: t, Display: t.Format("2006-01-02")}
}

// valueCell renders a record value as it came from the input.
func valueCell(v model.Value) Cell {
	switch v.Kind {
	case model.KindNumber:
		return Cell{Value: v.Num, Display: v.String()}
	case model.KindTime:
		return Cell{Value: v.Time, Display: v.String()}
	case model.KindText:
		return textCell(v.Str)
	default:
		return Cell{Value: nil, Display: ""}
	}
}
