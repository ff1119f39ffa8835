// Package money holds the decimal arithmetic helpers used for every
// monetary computation. Values stay at full precision until they are
// presented externally; nothing in here rounds mid-calculation.
package money

import "github.com/shopspring/decimal"

// Epsilon is the tolerance used for monetary equality checks. Repeated
// recomputation of totals can accumulate sub-cent noise, so "fully paid"
// and similar checks compare within one cent instead of exactly.
var Epsilon = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// Equal reports whether a and b differ by less than Epsilon.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// IsZero reports whether v is within Epsilon of zero.
func IsZero(v decimal.Decimal) bool {
	return Equal(v, decimal.Zero)
}

// Percent returns base × rate / 100.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// RateOf returns part / whole × 100, or zero when whole is zero.
func RateOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// DivOrZero returns a / b, or zero when b is zero.
func DivOrZero(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}
