package shared

import (
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMajor is the number of cents in one currency unit.
const MinorUnitsPerMajor = 100

var hundred = decimal.NewFromInt(100)

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// MinorUnits converts a major-unit amount to cents, rounding half away from
// zero. ok is false when the result does not fit in an int64.
func MinorUnits(major decimal.Decimal) (cents int64, ok bool) {
	minor := major.Mul(decimal.NewFromInt(MinorUnitsPerMajor)).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, false
	}
	return minor.IntPart(), true
}

// AddMinor adds two amounts, reporting false instead of wrapping around.
func AddMinor(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// Percent returns rate percent of amount as whole minor units, rounding half away from zero.
func Percent(amount int64, rate decimal.Decimal) int64 {
	if amount == 0 || rate.IsZero() {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(rate).Div(hundred).Round(0).IntPart()
}

// FormatMinor renders cents as a fixed two-decimal string, e.g. 1500 -> "15.00".
func FormatMinor(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
