package shared

import "github.com/shopspring/decimal"

// AmountPlaces is the number of fraction digits stored for balances and amounts
const AmountPlaces int32 = 2

// ValidAmount reports whether amount is positive and storable without rounding
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(AmountPlaces))
}
