package domain

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Currency codes are 3 uppercase letters (ISO 4217 shape, not the full list).
var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCurrency reports whether code matches the 3-uppercase-letter pattern.
func ValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// RequirePositiveAmount guards the movement entry points. Structural
// validation happens upstream, but amounts are safety-critical so we
// re-check here.
func RequirePositiveAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got %s: %w", amount, ErrInvalidOperation)
	}
	return nil
}

// AvailableBalance is the balance plus the overdraft allowance, the value
// a withdrawal or transfer is checked against.
func (a *Account) AvailableBalance() decimal.Decimal {
	if a.OverdraftLimit != nil {
		return a.Balance.Add(*a.OverdraftLimit)
	}
	return a.Balance
}

// DecimalPtr is a small helper for optional limit fields.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
