package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartItemLineTotal(t *testing.T) {
	item := NewCartItem(Product{ID: "p1", Price: decimal.NewFromInt(1990)}, 3)
	assert.True(t, decimal.NewFromInt(5970).Equal(item.LineTotal()))
}

func TestPricesEncodeAsNumbers(t *testing.T) {
	data, err := json.Marshal(Confirmation{OrderID: "o1", TotalAmount: decimal.NewFromInt(12999), CustomerName: "Ana"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"o1","totalAmount":12999,"customerName":"Ana"}`, string(data))
}
