package checkout

import (
	"context"

	"petshop_storefront/internal/models"
)

const (
	StepCreateOrder = "createOrder"
	StepUpdateStock = "updateStock"
	StepClearCart   = "clearCart"
)

// ProgressEvent est poussé après chaque étape de finalisation pour
// l'affichage en direct.
type ProgressEvent struct {
	Step    string                 `json:"step"`
	OK      bool                   `json:"ok"`
	Message string                 `json:"message,omitempty"`
	Steps   models.ProcessingSteps `json:"processingSteps"`
	State   State                  `json:"state"`
	OrderID string                 `json:"orderId,omitempty"`
}

// ProgressPublisher diffuse la progression d'une session de checkout. Une
// erreur de diffusion n'interrompt jamais la finalisation.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, slot string, event ProgressEvent) error
}

type noProgress struct{}

func (noProgress) PublishProgress(context.Context, string, ProgressEvent) error { return nil }

// Notifier est prévenu quand une commande existe (email de confirmation).
type Notifier interface {
	OrderConfirmed(order *models.PendingOrder, result *models.FinalizationResult)
}
