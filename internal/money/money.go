// Package money normalizes monetary values to currency precision.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	// Hundred is the percentage base.
	Hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Round2 rounds d to two decimal places, half-up: floor(d*100 + 0.5) / 100.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// Round2Float is Round2 for float64 values. NaN and infinities yield 0.
func Round2Float(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Floor(x*100+0.5) / 100
}

// Percent returns pct percent of base, unrounded.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(Hundred)
}

// Line returns price * quantity.
func Line(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// FloorAtZero clamps negative values to zero.
func FloorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
