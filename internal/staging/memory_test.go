package staging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop_storefront/internal/models"
)

func samplePendingOrder() *models.PendingOrder {
	return &models.PendingOrder{
		CartItems: []models.CartItem{
			{CartItemID: "a", ProductID: "1", Name: "Dog food 5kg", UnitPrice: 50, Quantity: 2, ImageRef: "dog-food.png"},
		},
		Quantities: map[string]int{"a": 2},
		DeliveryAddress: models.DeliveryAddress{
			FullName:     "Layla Haddad",
			Phone:        "+971 50 123 4567",
			AddressLine1: "12 Marina Walk",
			City:         "Dubai",
			Country:      "AE",
		},
		Email:          "layla@example.com",
		UserID:         "user-42",
		TotalAmount:    100,
		Token:          "tok",
		OrderSummary:   models.OrderSummary{Subtotal: 100, Total: 100},
		PaymentMethod:  models.PaymentCard,
		SessionID:      "cs_test_1",
		IdempotencyKey: "idem-1",
		StagedAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	written := samplePendingOrder()

	require.NoError(t, store.Put(ctx, "slot-1", written))

	read, err := store.TakeOnce(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, written, read)
}

func TestMemoryStore_TakeOnceIsSingleUse(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "slot-1", samplePendingOrder()))

	_, err := store.TakeOnce(ctx, "slot-1")
	require.NoError(t, err)

	again, err := store.TakeOnce(ctx, "slot-1")
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Nil(t, again)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_LastWriterWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := samplePendingOrder()
	second := samplePendingOrder()
	second.TotalAmount = 250

	require.NoError(t, store.Put(ctx, "slot-1", first))
	require.NoError(t, store.Put(ctx, "slot-1", second))

	read, err := store.TakeOnce(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, read.TotalAmount)
}

func TestMemoryStore_SlotsAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tab-a", samplePendingOrder()))

	_, err := store.TakeOnce(ctx, "tab-b")
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Equal(t, 1, store.Len())
}
