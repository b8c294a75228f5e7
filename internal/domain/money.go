package domain

import "github.com/shopspring/decimal"

// MinorUnits converts a major-unit decimal amount to the integer minor
// units the gateway works in. Fractional minor units are rejected rather
// than rounded; the caller decides how to round, money does not round
// itself.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrValidationAmountInvalid.WithDetail("amount", amount.String())
	}
	minor := amount.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrValidationAmountInvalid.WithDetail("amount", amount.String())
	}
	return minor.IntPart(), nil
}
