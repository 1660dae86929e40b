package checkout

import "github.com/shopspring/decimal"

// FormatMoney renders an amount rounded half away from zero to two decimals.
// Amounts are only rounded for display; totals keep full precision.
func FormatMoney(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}
