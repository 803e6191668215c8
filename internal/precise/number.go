// Package precise implements exact fixed-point decimal numbers.
//
// A Number is a decimal.Decimal pinned to an explicit unit: the value is
// amount × 10^-unit, and the unit is kept even when trailing digits are zero,
// so 1.50 stays amount 150 at unit 2. Money is carried in this form from the
// CSV price column until the final minor-unit amount of each currency is
// stored, so no binary floating point is ever involved.
//
// Add, Sub and Mul are exact. Div truncates toward zero at the requested unit.
// Normalize is the only operation that rounds, and it does so explicitly.
package precise

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Rounding selects how Normalize discards digits when reducing precision.
type Rounding int

const (
	// Truncate drops the discarded digits (truncation toward zero).
	Truncate Rounding = iota
	// HalfUp rounds half away from zero: 0.125 -> 0.13, -0.125 -> -0.13.
	HalfUp
)

func (r Rounding) String() string {
	switch r {
	case Truncate:
		return "truncate"
	case HalfUp:
		return "half_up"
	default:
		return fmt.Sprintf("rounding(%d)", int(r))
	}
}

var (
	// ErrNegativeUnit is returned when a negative target unit is requested.
	ErrNegativeUnit = errors.New("precise: target unit must be >= 0")

	// ErrRoundingMode is returned for a Rounding value outside the defined set.
	ErrRoundingMode = errors.New("precise: unsupported rounding mode")
)

// Number is an immutable fixed-point decimal. The zero value is 0 with unit 0.
type Number struct {
	d    decimal.Decimal // exponent is always -unit
	unit int
}

// New returns amount × 10^-unit. It panics if unit is negative.
func New(amount int64, unit int) Number {
	if unit < 0 {
		panic(ErrNegativeUnit)
	}
	return Number{d: decimal.New(amount, -int32(unit)), unit: unit}
}

// FromBigInt returns amount × 10^-unit. The amount is copied.
// It panics if unit is negative.
func FromBigInt(amount *big.Int, unit int) Number {
	if unit < 0 {
		panic(ErrNegativeUnit)
	}
	return Number{d: decimal.NewFromBigInt(amount, -int32(unit)), unit: unit}
}

// at pins d to unit. d must not carry more than unit decimal places.
func at(d decimal.Decimal, unit int) Number {
	if pad := int(d.Exponent()) + unit; pad > 0 {
		coef := d.Coefficient()
		coef.Mul(coef, decimal.New(1, int32(pad)).BigInt())
		d = decimal.NewFromBigInt(coef, -int32(unit))
	}
	return Number{d: d, unit: unit}
}

// Amount returns a copy of the scaled integer amount.
func (n Number) Amount() *big.Int {
	return n.d.Coefficient()
}

// Unit returns the number of decimal places carried by the amount.
func (n Number) Unit() int {
	return n.unit
}

// Int64 returns the scaled amount if it fits in an int64.
func (n Number) Int64() (int64, bool) {
	a := n.d.Coefficient()
	if !a.IsInt64() {
		return 0, false
	}
	return a.Int64(), true
}

// Sign returns -1, 0 or +1.
func (n Number) Sign() int {
	return n.d.Sign()
}

// Add returns n + o at the larger of the two units.
func (n Number) Add(o Number) Number {
	return at(n.d.Add(o.d), max(n.unit, o.unit))
}

// Sub returns n - o at the larger of the two units.
func (n Number) Sub(o Number) Number {
	return at(n.d.Sub(o.d), max(n.unit, o.unit))
}

// Mul returns n × o. The result unit is the sum of both units, so no
// precision is lost.
func (n Number) Mul(o Number) Number {
	return at(n.d.Mul(o.d), n.unit+o.unit)
}

// Div returns n / o at the larger of the two units.
// The second result is false when o is zero.
//
// The quotient is truncated toward zero, not floored: -7 / 2 at unit 0 is
// -3, and -1.00 / 3.00 is -0.33.
func (n Number) Div(o Number) (Number, bool) {
	return n.DivTo(o, max(n.unit, o.unit))
}

// DivTo returns n / o expressed with target decimal places, truncated toward
// zero. The second result is false when o is zero or target is negative.
func (n Number) DivTo(o Number, target int) (Number, bool) {
	if o.d.IsZero() || target < 0 {
		return Number{}, false
	}
	q, _ := n.d.QuoRem(o.d, int32(target))
	return at(q, target), true
}

// Normalize rescales n to target decimal places. Increasing precision is
// exact; reducing precision applies the rounding mode. Both modes work on
// the magnitude, so negative values mirror positive ones.
func (n Number) Normalize(target int, rounding Rounding) (Number, error) {
	if target < 0 {
		return Number{}, ErrNegativeUnit
	}
	if rounding != Truncate && rounding != HalfUp {
		return Number{}, fmt.Errorf("%w: %v", ErrRoundingMode, rounding)
	}

	switch {
	case target == n.unit:
		return n, nil
	case target > n.unit:
		return at(n.d, target), nil
	case rounding == HalfUp:
		return at(n.d.Round(int32(target)), target), nil
	default:
		return at(n.d.Truncate(int32(target)), target), nil
	}
}

// MustNormalize is Normalize for call sites whose arguments are constants.
// It panics on an invalid target unit or rounding mode.
func (n Number) MustNormalize(target int, rounding Rounding) Number {
	out, err := n.Normalize(target, rounding)
	if err != nil {
		panic(err)
	}
	return out
}

// Cmp compares the values of n and o regardless of their units.
func (n Number) Cmp(o Number) int {
	return n.d.Cmp(o.d)
}

// Equal reports whether n and o have the same amount and the same unit.
// 1.0 and 1.00 are not Equal; use Cmp to compare values.
func (n Number) Equal(o Number) bool {
	return n.unit == o.unit && n.d.Cmp(o.d) == 0
}

// String formats n as a plain decimal with exactly Unit fractional digits.
func (n Number) String() string {
	return n.d.StringFixed(int32(n.unit))
}
