package models

import "encoding/json"

// CreatePaymentRequest is the body of the provider's POST /payment/create.
type CreatePaymentRequest struct {
	APIKey          string      `json:"apiKey" binding:"required"`
	CommerceOrder   string      `json:"commerceOrder" binding:"required"`
	Subject         string      `json:"subject"`
	Amount          json.Number `json:"amount" binding:"required"`
	URLConfirmation string      `json:"urlConfirmation"`
	URLReturn       string      `json:"urlReturn"`
}

type PaymentSession struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	FlowOrder int64  `json:"flowOrder"`
}
