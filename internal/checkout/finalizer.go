package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"petshop_storefront/internal/auth"
	"petshop_storefront/internal/metrics"
	"petshop_storefront/internal/models"
	"petshop_storefront/internal/storefront"
)

// OrderAPI : les trois appels distants de la finalisation.
type OrderAPI interface {
	CreateOrder(ctx context.Context, sess *auth.Session, req *models.CreateOrderRequest, idempotencyKey string) (*models.CreatedOrder, error)
	UpdateStock(ctx context.Context, sess *auth.Session, req *models.StockUpdateRequest) (string, error)
	DeleteCartItem(ctx context.Context, sess *auth.Session, cartItemID string) error
}

// Finalizer enchaîne création de commande → mise à jour du stock → vidage du
// panier, dans cet ordre et sans jamais paralléliser deux étapes.
type Finalizer struct {
	api      OrderAPI
	progress ProgressPublisher
	metrics  *metrics.Checkout
}

func NewFinalizer(api OrderAPI, progress ProgressPublisher, m *metrics.Checkout) *Finalizer {
	if progress == nil {
		progress = noProgress{}
	}
	return &Finalizer{api: api, progress: progress, metrics: m}
}

// Finalize exécute la séquence pour la commande donnée. Le résultat est
// toujours renseigné ; l'erreur (ErrOrderCreation) n'est renvoyée que si la
// création de commande a échoué, auquel cas stock et panier ne sont pas touchés.
func (f *Finalizer) Finalize(ctx context.Context, sess *auth.Session, slot string, order *models.PendingOrder) (*models.FinalizationResult, error) {
	result := &models.FinalizationResult{PaymentMethod: order.PaymentMethod}

	// 1. Création de la commande (seule étape fatale)
	start := time.Now()
	created, err := f.api.CreateOrder(ctx, sess, orderRequest(order), order.IdempotencyKey)
	f.metrics.Step(StepCreateOrder, err == nil, msSince(start))
	if err != nil {
		cause := creationCause(err)
		result.OrderID = "FAILED-" + strings.ToUpper(uuid.NewString()[:8])
		result.ProcessingError = "Order creation failed: " + cause
		log.Printf("❌ [%s] Création de commande échouée : %v", slot, err)
		f.publish(ctx, slot, StepCreateOrder, false, result.ProcessingError, result, StateFailed)
		return result, &Error{Kind: KindOrderCreation, Message: result.ProcessingError, Err: err}
	}
	result.OrderID = created.ID
	if result.OrderID == "" {
		result.OrderID = order.IdempotencyKey
	}
	result.ProcessingSteps.OrderCreated = true
	log.Printf("✅ [%s] Commande %s créée", slot, result.OrderID)
	f.publish(ctx, slot, StepCreateOrder, true, "", result, StateProcessing)

	// 2. Stock (non fatal)
	start = time.Now()
	_, err = f.api.UpdateStock(ctx, sess, stockRequest(order))
	f.metrics.Step(StepUpdateStock, err == nil, msSince(start))
	if err != nil {
		result.StockUpdateMessage = "Stock update failed: " + reason(err)
		log.Printf("⚠️ [%s] Mise à jour du stock échouée : %v", slot, err)
	} else {
		result.ProcessingSteps.StockUpdated = true
	}
	f.publish(ctx, slot, StepUpdateStock, err == nil, result.StockUpdateMessage, result, StateProcessing)

	// 3. Vidage du panier : une suppression par ligne, toutes en parallèle
	start = time.Now()
	failed := f.clearCart(ctx, sess, order.CartItems)
	f.metrics.Step(StepClearCart, len(failed) == 0, msSince(start))
	if len(failed) == 0 {
		result.ProcessingSteps.CartCleared = true
		log.Printf("🧹 [%s] Panier vidé (%d lignes)", slot, len(order.CartItems))
	} else {
		result.FailedCartItemIDs = failed
		result.CartClearMessage = fmt.Sprintf("%d of %d cart items could not be removed", len(failed), len(order.CartItems))
		log.Printf("⚠️ [%s] %s : %v", slot, result.CartClearMessage, failed)
	}
	f.publish(ctx, slot, StepClearCart, len(failed) == 0, result.CartClearMessage, result, Classify(result))

	return result, nil
}

// clearCart renvoie les cartItemId dont la suppression a échoué, dans l'ordre du panier.
func (f *Finalizer) clearCart(ctx context.Context, sess *auth.Session, items []models.CartItem) []string {
	ok := make([]bool, len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			if err := f.api.DeleteCartItem(ctx, sess, item.CartItemID.String()); err != nil {
				log.Printf("⚠️ Suppression de la ligne %s échouée : %v", item.CartItemID, err)
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, item := range items {
		if !ok[i] {
			failed = append(failed, item.CartItemID.String())
		}
	}
	return failed
}

func (f *Finalizer) publish(ctx context.Context, slot, step string, ok bool, msg string, result *models.FinalizationResult, state State) {
	ev := ProgressEvent{
		Step:    step,
		OK:      ok,
		Message: msg,
		Steps:   result.ProcessingSteps,
		State:   state,
		OrderID: result.OrderID,
	}
	if err := f.progress.PublishProgress(ctx, slot, ev); err != nil {
		log.Printf("⚠️ [%s] Diffusion de la progression impossible : %v", slot, err)
	}
}

func orderRequest(order *models.PendingOrder) *models.CreateOrderRequest {
	lines := make([]models.OrderLine, 0, len(order.CartItems))
	for _, item := range order.CartItems {
		lines = append(lines, models.OrderLine{
			ProductID:  item.ProductID,
			CartItemID: item.CartItemID,
			Name:       item.Name,
			Quantity:   order.QuantityFor(item),
			Price:      item.UnitPrice,
		})
	}

	status := "pending"
	if order.PaymentMethod == models.PaymentCard {
		status = "paid"
	}

	return &models.CreateOrderRequest{
		ShippingAddress: order.DeliveryAddress.Format(),
		Items:           lines,
		OrderSummary:    order.OrderSummary,
		Customer: models.CustomerInfo{
			Name:  order.DeliveryAddress.FullName,
			Email: order.Email,
			Phone: order.DeliveryAddress.Phone,
		},
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: status,
		SessionID:     order.SessionID,
		TotalAmount:   order.TotalAmount,
	}
}

func stockRequest(order *models.PendingOrder) *models.StockUpdateRequest {
	lines := make([]models.StockLine, 0, len(order.CartItems))
	for _, item := range order.CartItems {
		lines = append(lines, models.StockLine{
			ProductID:  item.ProductID,
			CartItemID: item.CartItemID,
			Quantity:   order.QuantityFor(item),
		})
	}
	return &models.StockUpdateRequest{Items: lines}
}

func creationCause(err error) string {
	switch storefront.StatusCode(err) {
	case http.StatusNotFound:
		return "endpoint not found"
	case http.StatusUnauthorized:
		return "authentication failed, please login again"
	case http.StatusUnprocessableEntity:
		return "invalid order data"
	case http.StatusInternalServerError:
		return "server error"
	}
	return reason(err)
}

// reason : message lisible pour l'utilisateur.
func reason(err error) string {
	var apiErr *storefront.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, storefront.ErrEmptyResponse):
		return "empty response from server"
	case errors.Is(err, storefront.ErrUnavailable):
		return "service temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	return "network error"
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
