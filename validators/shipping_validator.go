package validators

import (
	"fmt"
	"strings"

	"github.com/pedrignacio/tu-kiosko/models"
)

const MinPhoneLength = 9

// FieldError describes the first shipping form field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateShippingForm checks name, email, phone and address in that order
// and returns the first failure.
func ValidateShippingForm(form models.ShippingForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return &FieldError{Field: "name", Message: "name is required"}
	}
	if !strings.Contains(form.Email, "@") {
		return &FieldError{Field: "email", Message: "invalid email"}
	}
	if len(form.Phone) < MinPhoneLength {
		return &FieldError{Field: "phone", Message: "invalid phone"}
	}
	if strings.TrimSpace(form.Address) == "" {
		return &FieldError{Field: "address", Message: "address is required"}
	}
	return nil
}
