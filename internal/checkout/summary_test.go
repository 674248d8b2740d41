package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"petshop_storefront/internal/models"
)

var testPricing = Pricing{FreeShippingThreshold: 200, ShippingFee: 25, VATRate: 0.05}

func TestSummary(t *testing.T) {
	tests := []struct {
		name  string
		items []models.CartItem
		want  models.OrderSummary
	}{
		{
			name:  "empty cart",
			items: nil,
			want:  models.OrderSummary{},
		},
		{
			name:  "below threshold pays shipping",
			items: []models.CartItem{{UnitPrice: 50, Quantity: 2}},
			want:  models.OrderSummary{Subtotal: 100, Shipping: 25, VAT: 5, Total: 130},
		},
		{
			name:  "threshold itself still pays shipping",
			items: []models.CartItem{{UnitPrice: 200, Quantity: 1}},
			want:  models.OrderSummary{Subtotal: 200, Shipping: 25, VAT: 10, Total: 235},
		},
		{
			name:  "above threshold ships free",
			items: []models.CartItem{{UnitPrice: 125, Quantity: 2}},
			want:  models.OrderSummary{Subtotal: 250, Shipping: 0, VAT: 12.5, Total: 262.5},
		},
		{
			name:  "cents are rounded",
			items: []models.CartItem{{UnitPrice: 19.99, Quantity: 3}},
			want:  models.OrderSummary{Subtotal: 59.97, Shipping: 25, VAT: 3, Total: 87.97},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testPricing.Summary(tt.items)
			assert.Equal(t, tt.want, got)
			assert.True(t, CheckSummary(got))
		})
	}
}

func TestCheckSummary(t *testing.T) {
	assert.True(t, CheckSummary(models.OrderSummary{Subtotal: 100, Total: 100}))
	assert.True(t, CheckSummary(models.OrderSummary{Subtotal: 0.1, Shipping: 0.2, Total: 0.3}))
	assert.False(t, CheckSummary(models.OrderSummary{Subtotal: 100, Shipping: 25, Total: 100}))
	assert.False(t, CheckSummary(models.OrderSummary{Subtotal: -10, Shipping: 10, Total: 0}))
}
