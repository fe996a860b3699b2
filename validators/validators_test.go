package validators

import (
	"errors"
	"testing"

	"github.com/pedrignacio/tu-kiosko/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() models.ShippingForm {
	return models.ShippingForm{
		Name:    "Juan Pérez",
		Email:   "juan@correo.com",
		Phone:   "+56912345678",
		Address: "Av. Siempre Viva 742, Santiago",
	}
}

func TestValidateShippingForm(t *testing.T) {
	require.NoError(t, ValidateShippingForm(validForm()))

	tests := []struct {
		name   string
		mutate func(*models.ShippingForm)
		field  string
	}{
		{"blank name", func(f *models.ShippingForm) { f.Name = "   " }, "name"},
		{"email without at", func(f *models.ShippingForm) { f.Email = "not-an-email" }, "email"},
		{"short phone", func(f *models.ShippingForm) { f.Phone = "12345678" }, "phone"},
		{"blank address", func(f *models.ShippingForm) { f.Address = "\t" }, "address"},
		{"first failure wins", func(f *models.ShippingForm) { f.Email = "x"; f.Phone = "1" }, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			err := ValidateShippingForm(form)
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestPhoneOfExactlyNineCharsPasses(t *testing.T) {
	form := validForm()
	form.Phone = "912345678"
	assert.NoError(t, ValidateShippingForm(form))
}

func TestValidateCommerceOrder(t *testing.T) {
	assert.True(t, ValidateCommerceOrder("1760601600000-3f2a9c1e"))
	assert.False(t, ValidateCommerceOrder(""))
	assert.False(t, ValidateCommerceOrder("order 1"))
}
