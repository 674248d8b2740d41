package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop_storefront/internal/checkout"
	"petshop_storefront/internal/models"
)

func setupTestRedis(t *testing.T) (*CheckoutCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCheckoutCache(client, time.Hour), mr
}

func TestAttempt_SaveAndLoad(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	attempt := &checkout.Attempt{
		Outcome: checkout.Outcome{
			State:         checkout.StateFailed,
			Stage:         checkout.StagePayment,
			PaymentMethod: models.PaymentCard,
			ErrorMessage:  "Payment was cancelled",
			Amount:        100,
			Retryable:     true,
		},
		Order: &models.PendingOrder{UserID: "user-1", IdempotencyKey: "idem-1"},
	}

	require.NoError(t, c.SaveAttempt(ctx, "sid-1", attempt))
	assert.Equal(t, time.Hour, mr.TTL(attemptPrefix+"sid-1"))

	got, err := c.LoadAttempt(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StateFailed, got.Outcome.State)
	assert.Equal(t, "Payment was cancelled", got.Outcome.ErrorMessage)
	assert.Equal(t, "idem-1", got.Order.IdempotencyKey)
}

func TestAttempt_Missing(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.LoadAttempt(context.Background(), "nope")
	assert.ErrorIs(t, err, checkout.ErrNoAttempt)
}

func TestProgress_PublishSubscribe(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, stop, err := c.SubscribeProgress(ctx, "sid-1")
	require.NoError(t, err)
	defer stop()

	sent := checkout.ProgressEvent{
		Step:    checkout.StepCreateOrder,
		OK:      true,
		Steps:   models.ProcessingSteps{OrderCreated: true},
		State:   checkout.StateProcessing,
		OrderID: "ord-1",
	}
	require.NoError(t, c.PublishProgress(ctx, "sid-1", sent))

	select {
	case got := <-events:
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("aucun événement reçu")
	}
}

func TestIncrementRateLimit(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := c.IncrementRateLimit(ctx, "rl:checkout:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.Equal(t, time.Minute, c.RateLimitTTL(ctx, "rl:checkout:1.2.3.4"))

	mr.FastForward(2 * time.Minute)
	n, err := c.IncrementRateLimit(ctx, "rl:checkout:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
