package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petshop_storefront/internal/models"
)

// State : état de la page de résultat.
type State string

const (
	StateLoading            State = "loading"
	StateProcessing         State = "processing"
	StateSucceeded          State = "succeeded"
	StatePartiallySucceeded State = "partiallySucceeded"
	StateFailed             State = "failed"
)

// Stage indique où la tentative en est : paiement (avant redirection) ou
// finalisation (les trois appels distants).
type Stage string

const (
	StagePayment      Stage = "payment"
	StageFinalization Stage = "finalization"
)

// IsTerminal : une commande existe, plus rien à rejouer.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StatePartiallySucceeded
}

func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StateLoading:
		return next == StateProcessing || next == StateFailed
	case StateProcessing:
		return next == StateSucceeded || next == StatePartiallySucceeded || next == StateFailed
	case StateFailed:
		// relance manuelle : paiement (→ Loading) ou finalisation (→ Processing)
		return next == StateLoading || next == StateProcessing
	}
	return false
}

// Classify déduit l'état final d'une finalisation.
func Classify(result *models.FinalizationResult) State {
	if result == nil || result.ProcessingError != "" || !result.ProcessingSteps.OrderCreated {
		return StateFailed
	}
	if result.ProcessingSteps.All() {
		return StateSucceeded
	}
	return StatePartiallySucceeded
}

// Outcome est ce que le front affiche sur les pages succès / échec.
type Outcome struct {
	State           State                      `json:"state"`
	Stage           Stage                      `json:"stage"`
	PaymentMethod   models.PaymentMethod       `json:"paymentMethod"`
	Result          *models.FinalizationResult `json:"result,omitempty"`
	ErrorMessage    string                     `json:"errorMessage,omitempty"`
	Amount          float64                    `json:"amount,omitempty"`
	CartItems       []models.CartItem          `json:"cartItems,omitempty"`
	DeliveryAddress *models.DeliveryAddress    `json:"deliveryAddress,omitempty"`
	Warnings        []string                   `json:"warnings,omitempty"`
	Retryable       bool                       `json:"retryable"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

const supportFollowUp = "Your order is confirmed, but our team may need to follow up on this."

// finalizationOutcome construit la vue à partir du résultat d'orchestration.
func finalizationOutcome(order *models.PendingOrder, result *models.FinalizationResult) Outcome {
	out := Outcome{
		State:         Classify(result),
		Stage:         StageFinalization,
		PaymentMethod: order.PaymentMethod,
		Result:        result,
		Amount:        order.TotalAmount,
		UpdatedAt:     time.Now().UTC(),
	}
	switch out.State {
	case StateFailed:
		out.ErrorMessage = result.ProcessingError
		out.CartItems = order.CartItems
		addr := order.DeliveryAddress
		out.DeliveryAddress = &addr
		out.Retryable = true
	case StatePartiallySucceeded:
		if !result.ProcessingSteps.StockUpdated {
			out.Warnings = append(out.Warnings, result.StockUpdateMessage)
		}
		if !result.ProcessingSteps.CartCleared {
			out.Warnings = append(out.Warnings, result.CartClearMessage)
		}
		out.Warnings = append(out.Warnings, supportFollowUp)
	}
	return out
}

// paymentFailure : échec avant redirection, aucune donnée distante modifiée.
func paymentFailure(order *models.PendingOrder, err error) Outcome {
	addr := order.DeliveryAddress
	return Outcome{
		State:           StateFailed,
		Stage:           StagePayment,
		PaymentMethod:   order.PaymentMethod,
		ErrorMessage:    userMessage(err),
		Amount:          order.TotalAmount,
		CartItems:       order.CartItems,
		DeliveryAddress: &addr,
		Retryable:       true,
		UpdatedAt:       time.Now().UTC(),
	}
}

func userMessage(err error) string {
	var cerr *Error
	if errors.As(err, &cerr) && cerr.Message != "" {
		return cerr.Message
	}
	return err.Error()
}

// Attempt est la dernière tentative de checkout d'une session : l'état
// affiché et les données nécessaires pour la rejouer.
type Attempt struct {
	Outcome Outcome              `json:"outcome"`
	Order   *models.PendingOrder `json:"order,omitempty"`
}

var ErrNoAttempt = errors.New("aucune tentative de checkout pour cette session")

// AttemptStore conserve la dernière tentative par session de checkout.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, slot string, attempt *Attempt) error
	// LoadAttempt renvoie ErrNoAttempt si rien n'est enregistré.
	LoadAttempt(ctx context.Context, slot string) (*Attempt, error)
}

// transition contrôle et applique un changement d'état.
func transition(a *Attempt, next Outcome) error {
	if a.Outcome.State != "" && a.Outcome.State != next.State && !a.Outcome.State.CanTransitionTo(next.State) {
		return fmt.Errorf("transition %s → %s interdite", a.Outcome.State, next.State)
	}
	a.Outcome = next
	return nil
}
