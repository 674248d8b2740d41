package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"petshop_storefront/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		result *models.FinalizationResult
		want   State
	}{
		{"nil", nil, StateFailed},
		{"creation failed", &models.FinalizationResult{ProcessingError: "Order creation failed: server error"}, StateFailed},
		{"all steps", &models.FinalizationResult{ProcessingSteps: models.ProcessingSteps{OrderCreated: true, StockUpdated: true, CartCleared: true}}, StateSucceeded},
		{"stock failed", &models.FinalizationResult{ProcessingSteps: models.ProcessingSteps{OrderCreated: true, CartCleared: true}}, StatePartiallySucceeded},
		{"cart failed", &models.FinalizationResult{ProcessingSteps: models.ProcessingSteps{OrderCreated: true, StockUpdated: true}}, StatePartiallySucceeded},
		{"both cleanups failed", &models.FinalizationResult{ProcessingSteps: models.ProcessingSteps{OrderCreated: true}}, StatePartiallySucceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.result))
		})
	}
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, StateLoading.CanTransitionTo(StateProcessing))
	assert.True(t, StateLoading.CanTransitionTo(StateFailed))
	assert.True(t, StateProcessing.CanTransitionTo(StatePartiallySucceeded))
	assert.True(t, StateFailed.CanTransitionTo(StateProcessing))
	assert.True(t, StateFailed.CanTransitionTo(StateLoading))

	assert.False(t, StateLoading.CanTransitionTo(StateSucceeded))
	assert.False(t, StateSucceeded.CanTransitionTo(StateProcessing))
	assert.False(t, StatePartiallySucceeded.CanTransitionTo(StateProcessing))
	assert.False(t, StateFailed.CanTransitionTo(StateSucceeded))

	assert.True(t, StateSucceeded.IsTerminal())
	assert.True(t, StatePartiallySucceeded.IsTerminal())
	assert.False(t, StateFailed.IsTerminal())
}

func TestFinalizationOutcome_PartialCarriesWarnings(t *testing.T) {
	result := &models.FinalizationResult{
		OrderID:            "ord-1",
		ProcessingSteps:    models.ProcessingSteps{OrderCreated: true, CartCleared: true},
		StockUpdateMessage: "Stock update failed: inventory service down",
	}

	out := finalizationOutcome(sampleOrder(models.PaymentCard), result)

	assert.Equal(t, StatePartiallySucceeded, out.State)
	assert.False(t, out.Retryable)
	assert.Equal(t, []string{"Stock update failed: inventory service down", supportFollowUp}, out.Warnings)
	assert.Empty(t, out.ErrorMessage)
}

func TestFinalizationOutcome_FailedKeepsRetryData(t *testing.T) {
	order := sampleOrder(models.PaymentCashOnDelivery)
	result := &models.FinalizationResult{OrderID: "FAILED-1", ProcessingError: "Order creation failed: server error"}

	out := finalizationOutcome(order, result)

	assert.Equal(t, StateFailed, out.State)
	assert.True(t, out.Retryable)
	assert.Equal(t, "Order creation failed: server error", out.ErrorMessage)
	assert.Equal(t, order.CartItems, out.CartItems)
	assert.Equal(t, order.DeliveryAddress, *out.DeliveryAddress)
}
