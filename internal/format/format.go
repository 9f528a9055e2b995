// Package format renders numbers and dates the way the dashboard displays
// them (es-CO conventions) and builds accent-insensitive search keys.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultTruncation is the rune limit used by Truncate when none is given.
	DefaultTruncation = 50

	currencySymbol = "$"
	currencyGap    = "\u00a0" // es-CO separates symbol and amount with a no-break space
	thousandsSep   = '.'
	decimalSep     = ","
)

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Currency renders an amount in pesos without fractional digits, rounding
// half away from zero. NaN and infinities render as zero.
func Currency(amount float64) string {
	d := decimal.NewFromFloat(finite(amount)).Round(0)

	prefix := ""
	if d.Sign() < 0 {
		prefix = "-"
	}

	return prefix + currencySymbol + currencyGap + groupThousands(d.Abs().String())
}

// Number renders a value with grouped thousands and up to three decimals.
func Number(v float64) string {
	d := decimal.NewFromFloat(finite(v)).Round(3)

	prefix := ""
	if d.Sign() < 0 {
		prefix = "-"
	}

	s := d.Abs().String()
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	out := prefix + groupThousands(intPart)
	if hasFrac {
		out += decimalSep + fracPart
	}
	return out
}

// Percentage renders a fraction (0.044) as a percentage with one decimal ("4.4%").
func Percentage(fraction float64) string {
	return decimal.NewFromFloat(finite(fraction)).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// PercentagePoints renders a value that is already expressed in percent
// (0.44 meaning 0.44%) using the same one-decimal layout as Percentage.
func PercentagePoints(pct float64) string {
	return decimal.NewFromFloat(finite(pct)).StringFixed(1) + "%"
}

// Index renders a price-index value with one decimal.
func Index(v float64) string {
	return decimal.NewFromFloat(finite(v)).StringFixed(1)
}

// Date renders t as "15 de octubre de 2026, 07:01".
func Date(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d, %02d:%02d",
		t.Day(), monthNames[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// NormalizeSearchKey lower-cases text and strips diacritics so "Café"
// and "cafe" compare equal.
func NormalizeSearchKey(text string) string {
	lower := strings.ToLower(text)
	// transformers are stateful; build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return out
}

// Truncate shortens text to max runes and appends "..." when it was cut.
// A non-positive max uses DefaultTruncation.
func Truncate(text string, max int) string {
	if max <= 0 {
		max = DefaultTruncation
	}
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// groupThousands inserts the thousands separator into a string of digits.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(thousandsSep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
