package models

import "time"

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cashOnDelivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentCashOnDelivery
}

// PendingOrder est la commande mise de côté avant la redirection vers la page
// de paiement hébergée, relue une seule fois au retour.
type PendingOrder struct {
	CartItems       []CartItem      `json:"cartItems"`
	Quantities      map[string]int  `json:"quantities"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	Email           string          `json:"email"`
	UserID          string          `json:"userId"`
	TotalAmount     float64         `json:"totalAmount"`
	Token           string          `json:"token"`
	OrderSummary    OrderSummary    `json:"orderSummary"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	SessionID       string          `json:"sessionId,omitempty"`
	IdempotencyKey  string          `json:"idempotencyKey"`
	StagedAt        time.Time       `json:"stagedAt"`
}

// QuantityFor retourne la quantité résolue d'une ligne : la map `quantities`
// prime sur la quantité de l'item.
func (p *PendingOrder) QuantityFor(item CartItem) int {
	if q, ok := p.Quantities[item.CartItemID.String()]; ok && q > 0 {
		return q
	}
	return item.Quantity
}

type ProcessingSteps struct {
	OrderCreated bool `json:"orderCreated"`
	StockUpdated bool `json:"stockUpdated"`
	CartCleared  bool `json:"cartCleared"`
}

func (s ProcessingSteps) All() bool {
	return s.OrderCreated && s.StockUpdated && s.CartCleared
}

type FinalizationResult struct {
	OrderID            string          `json:"orderId"`
	PaymentMethod      PaymentMethod   `json:"paymentMethod"`
	ProcessingSteps    ProcessingSteps `json:"processingSteps"`
	StockUpdateMessage string          `json:"stockUpdateMessage,omitempty"`
	CartClearMessage   string          `json:"cartClearMessage,omitempty"`
	FailedCartItemIDs  []string        `json:"failedCartItemIds,omitempty"`
	ProcessingError    string          `json:"processingError,omitempty"`
}

// OrderLine est une ligne envoyée à l'endpoint de création de commande.
type OrderLine struct {
	ProductID  ID      `json:"productId"`
	CartItemID ID      `json:"cartItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

type CreateOrderRequest struct {
	ShippingAddress string        `json:"shippingAddress"`
	Items           []OrderLine   `json:"items"`
	OrderSummary    OrderSummary  `json:"orderSummary"`
	Customer        CustomerInfo  `json:"customerInfo"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   string        `json:"paymentStatus"`
	SessionID       string        `json:"sessionId,omitempty"`
	TotalAmount     float64       `json:"totalAmount"`
}

// CreatedOrder est la commande normalisée renvoyée par l'API.
type CreatedOrder struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

type StockLine struct {
	ProductID  ID  `json:"productId"`
	CartItemID ID  `json:"cartItemId"`
	Quantity   int `json:"quantity"`
}

type StockUpdateRequest struct {
	Items []StockLine `json:"items"`
}
