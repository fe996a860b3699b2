package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentSendsOrder(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/create", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-1","url":"https://pay.example/app","flowOrder":42}`))
	}))
	defer server.Close()

	client := NewPaymentClient(server.URL, "key-123", "https://shop.example/")
	raw, err := client.CreatePayment(context.Background(), decimal.NewFromInt(12999), "o-1")
	require.NoError(t, err)

	assert.JSONEq(t, `{"token":"tok-1","url":"https://pay.example/app","flowOrder":42}`, string(raw))
	assert.Equal(t, "key-123", got["apiKey"])
	assert.Equal(t, "o-1", got["commerceOrder"])
	assert.Equal(t, "Pedido TU KIOSKO #o-1", got["subject"])
	assert.EqualValues(t, 12999, got["amount"])
	assert.Equal(t, "https://shop.example/order-confirmation", got["urlReturn"])
}

func TestCreatePaymentErrorsAreOpaque(t *testing.T) {
	t.Run("provider rejects", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":108,"message":"bad amount"}`))
		}))
		defer server.Close()

		_, err := NewPaymentClient(server.URL, "k", "").CreatePayment(context.Background(), decimal.NewFromInt(1), "o-1")
		assert.ErrorIs(t, err, ErrPaymentFailed)
	})

	t.Run("provider unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewPaymentClient(url, "k", "").CreatePayment(context.Background(), decimal.NewFromInt(1), "o-1")
		assert.ErrorIs(t, err, ErrPaymentFailed)
	})
}
