package payment

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")

// FormatAmount renders amount the way the gateway expects USD values ("10.50").
// Amounts that would need rounding are rejected instead.
func FormatAmount(amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return "", ErrInvalidAmount
	}
	return amount.StringFixed(2), nil
}
