package dataset

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundTo rounds half away from zero to the given number of decimal places.
// Non-finite inputs pass through unchanged so the caller's sanitizer can
// decide their fate.
func RoundTo(f float64, places int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	out, _ := decimal.NewFromFloat(f).Round(places).Float64()
	return out
}

// SanitizeNumber maps NaN and ±Inf to 0. Finite numbers pass through.
func SanitizeNumber(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
