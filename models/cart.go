package models

import "github.com/shopspring/decimal"

// CartItem is one product's aggregated quantity within a cart.
type CartItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Quantity    int             `json:"quantity"`
}

// LineTotal returns price × quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewCartItem copies the product identity fields into a line with the given quantity.
func NewCartItem(p Product, quantity int) CartItem {
	return CartItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Quantity:    quantity,
	}
}

type Cart struct {
	Items     []CartItem      `json:"items"`
	Subtotal  decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}
