// Package numeric holds the rounding and division rules shared by the
// mileage and analytics computations.
package numeric

import "github.com/shopspring/decimal"

// Round2 rounds f half away from zero to two decimal places using decimal
// arithmetic, so 13.335 rounds to 13.34 regardless of binary representation.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// Ratio divides num by den, returning 0 when den is 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Mean returns the arithmetic mean of values, 0 for none.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PercentChange returns (current - previous) / previous * 100, or 0 when
// previous is 0.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
