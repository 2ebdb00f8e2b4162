package utils

import "math"

// DollarsToCents converts a decimal dollar amount into integer minor units.
// External APIs may accept decimals; everything internal is cents, so the
// conversion happens exactly once, here, with banker's rounding.
func DollarsToCents(amount float64) int64 {
	return int64(math.RoundToEven(amount * 100))
}

// CentsToDollars converts integer minor units back to a decimal amount for
// display boundaries.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
