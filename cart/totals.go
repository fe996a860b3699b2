package cart

import (
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/shopspring/decimal"
)

// Totals derives the subtotal and item count from the line items alone.
func Totals(items []models.CartItem) (decimal.Decimal, int) {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		count += item.Quantity
	}
	return subtotal, count
}

// FreeShippingRemaining is how much more must be added to reach threshold.
func FreeShippingRemaining(subtotal, threshold decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero
	}
	return threshold.Sub(subtotal)
}

func snapshotOf(items []models.CartItem) models.Cart {
	out := make([]models.CartItem, len(items))
	copy(out, items)
	subtotal, count := Totals(out)
	return models.Cart{
		Items:     out,
		Subtotal:  subtotal,
		ItemCount: count,
	}
}
