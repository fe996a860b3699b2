package models

import "github.com/shopspring/decimal"

func init() {
	// Prices are whole pesos; clients expect plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
