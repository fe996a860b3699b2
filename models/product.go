package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Quantity    int             `json:"quantity"` // units in stock
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" binding:"required"`
	ImageURL    string          `json:"imageUrl"`
	Quantity    int             `json:"quantity" binding:"min=0"`
}

type CreateProductResponse struct {
	ID string `json:"id"`
}
