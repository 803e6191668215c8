package precise

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse reads a plain fixed-point literal such as "1", "-0.5" or "158.123".
// The unit of the result is the number of fractional digits, so "1.50"
// parses to amount 150, unit 2.
//
// The grammar is deliberately narrow: at most one '.', a non-empty integral
// part, an optional leading '-', and decimal digits only. Exponents, '+',
// grouping separators and surrounding whitespace are rejected.
func Parse(s string) (Number, bool) {
	integral, fraction, hasPoint := strings.Cut(s, ".")
	if hasPoint && strings.Contains(fraction, ".") {
		return Number{}, false
	}

	neg := strings.HasPrefix(integral, "-")
	if neg {
		integral = integral[1:]
	}
	if integral == "" {
		return Number{}, false
	}

	digits := integral + fraction
	if !allDigits(digits) {
		return Number{}, false
	}

	if neg {
		digits = "-" + digits
	}
	amount, err := decimal.NewFromString(digits)
	if err != nil {
		return Number{}, false
	}
	return FromBigInt(amount.Coefficient(), len(fraction)), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
