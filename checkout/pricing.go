package checkout

import (
	"github.com/pedrignacio/tu-kiosko/cart"
	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/shopspring/decimal"
)

// Pricing holds the shipping rule: free at or above the threshold, flat otherwise.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingCost      decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(10000),
		FlatShippingCost:      decimal.NewFromInt(3000),
	}
}

func (p Pricing) ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatShippingCost
}

func (p Pricing) Quote(c models.Cart) models.Quote {
	shipping := p.ShippingCost(c.Subtotal)
	return models.Quote{
		Items:                 c.Items,
		Subtotal:              c.Subtotal,
		ShippingCost:          shipping,
		Total:                 c.Subtotal.Add(shipping),
		FreeShippingRemaining: cart.FreeShippingRemaining(c.Subtotal, p.FreeShippingThreshold),
	}
}
