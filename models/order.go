package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusConfirmed = "CONFIRMED"
)

type ShippingForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Order is created once per successful checkout and never mutated afterwards.
type Order struct {
	OrderID      string          `json:"order_id"`
	SessionID    string          `json:"session_id"`
	Status       string          `json:"status"`
	CustomerName string          `json:"customer_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Items        []CartItem      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Confirmation is the record handed to the confirmation view.
type Confirmation struct {
	OrderID      string          `json:"orderId"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	CustomerName string          `json:"customerName"`
}

func (o Order) Confirmation() Confirmation {
	return Confirmation{
		OrderID:      o.OrderID,
		TotalAmount:  o.TotalAmount,
		CustomerName: o.CustomerName,
	}
}

type Quote struct {
	Items                 []CartItem      `json:"items"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	ShippingCost          decimal.Decimal `json:"shipping_cost"`
	Total                 decimal.Decimal `json:"total"`
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}
