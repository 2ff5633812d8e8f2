package postgres

import "github.com/shopspring/decimal"

// NUMERIC columns are selected as ::TEXT and parsed here so the exact value survives.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
