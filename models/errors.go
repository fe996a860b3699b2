package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// EmptyCartResponse points the client back to the catalog when there is nothing to check out.
type EmptyCartResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Catalog string `json:"catalog"`
}

type FieldErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}
