package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"petshop_storefront/internal/auth"
	"petshop_storefront/internal/models"
	"petshop_storefront/internal/storefront"
)

// fakeAPI simule l'API REST boutique et compte les appels par endpoint.
type fakeAPI struct {
	mu sync.Mutex

	sessionStatus int
	sessionBody   string
	orderStatus   int
	orderBody     string
	stockStatus   int
	failDeletes   map[string]bool

	calls           map[string]int
	idempotencyKeys []string
	orders          []models.CreateOrderRequest
}

func newFakeAPI(t *testing.T) (*fakeAPI, *storefront.Client) {
	t.Helper()
	return newFakeAPIWithBreaker(t, 100)
}

func newFakeAPIWithBreaker(t *testing.T, maxFailures uint32) (*fakeAPI, *storefront.Client) {
	t.Helper()
	f := &fakeAPI{
		sessionStatus: http.StatusOK,
		sessionBody:   `{"id":"cs_test_1"}`,
		orderStatus:   http.StatusCreated,
		orderBody:     `{"order":{"_id":"ord-1","status":"pending"}}`,
		stockStatus:   http.StatusOK,
		failDeletes:   map[string]bool{},
		calls:         map[string]int{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	client := storefront.NewClient(storefront.Options{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Paths: storefront.Paths{
			Session:  "/payment/create-checkout-session",
			Orders:   "/orders",
			Stock:    "/products/update-stock",
			CartItem: "/cart/{cartItemId}",
		},
		MaxFailures: maxFailures,
	})
	return f, client
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/payment/create-checkout-session":
		f.calls["session"]++
		w.WriteHeader(f.sessionStatus)
		_, _ = w.Write([]byte(f.sessionBody))
	case r.URL.Path == "/orders":
		f.calls["order"]++
		f.idempotencyKeys = append(f.idempotencyKeys, r.Header.Get(storefront.IdempotencyHeader))
		var req models.CreateOrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.orders = append(f.orders, req)
		w.WriteHeader(f.orderStatus)
		if f.orderStatus < 300 {
			_, _ = w.Write([]byte(f.orderBody))
		} else {
			_, _ = w.Write([]byte(`{"message":"order rejected"}`))
		}
	case r.URL.Path == "/products/update-stock":
		f.calls["stock"]++
		w.WriteHeader(f.stockStatus)
		if f.stockStatus >= 300 {
			_, _ = w.Write([]byte(`{"message":"inventory service down"}`))
		}
	case strings.HasPrefix(r.URL.Path, "/cart/") && r.Method == http.MethodDelete:
		f.calls["delete"]++
		if f.failDeletes[strings.TrimPrefix(r.URL.Path, "/cart/")] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.idempotencyKeys...)
}

func (f *fakeAPI) sentOrders() []models.CreateOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CreateOrderRequest(nil), f.orders...)
}

// memoryAttempts copie les tentatives en JSON, comme le ferait Redis.
type memoryAttempts struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{slots: map[string][]byte{}}
}

func (m *memoryAttempts) SaveAttempt(ctx context.Context, slot string, a *Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.slots[slot] = data
	m.mu.Unlock()
	return nil
}

func (m *memoryAttempts) LoadAttempt(_ context.Context, slot string) (*Attempt, error) {
	m.mu.Lock()
	data, ok := m.slots[slot]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoAttempt
	}
	var a Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// cancelAfterCreate annule le contexte de la requête dès que la commande est
// créée, comme un navigateur qui quitte la page de succès.
type cancelAfterCreate struct {
	OrderAPI
	cancel context.CancelFunc
}

func (c *cancelAfterCreate) CreateOrder(ctx context.Context, sess *auth.Session, req *models.CreateOrderRequest, key string) (*models.CreatedOrder, error) {
	created, err := c.OrderAPI.CreateOrder(ctx, sess, req, key)
	c.cancel()
	return created, err
}

type recordedProgress struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *recordedProgress) PublishProgress(_ context.Context, _ string, ev ProgressEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

type recordedNotifier struct {
	mu     sync.Mutex
	orders []string
}

func (n *recordedNotifier) OrderConfirmed(_ *models.PendingOrder, result *models.FinalizationResult) {
	n.mu.Lock()
	n.orders = append(n.orders, result.OrderID)
	n.mu.Unlock()
}

func sampleOrder(method models.PaymentMethod, items ...models.CartItem) *models.PendingOrder {
	if len(items) == 0 {
		items = []models.CartItem{{CartItemID: "a", ProductID: "1", Name: "Salmon Kibble", UnitPrice: 50, Quantity: 2}}
	}
	return &models.PendingOrder{
		CartItems:       items,
		Quantities:      map[string]int{},
		DeliveryAddress: sampleAddress(),
		Email:           "layla@example.ae",
		UserID:          "user-1",
		Token:           "tok-1",
		TotalAmount:     100,
		OrderSummary:    models.OrderSummary{Subtotal: 100, Total: 100},
		PaymentMethod:   method,
		IdempotencyKey:  "idem-1",
	}
}

func sampleAddress() models.DeliveryAddress {
	return models.DeliveryAddress{
		FullName:     "Layla Haddad",
		Phone:        "+971 50 123 4567",
		AddressLine1: "12 Marina Walk",
		City:         "Dubai",
		Country:      "AE",
	}
}

func validRequest(method models.PaymentMethod) Request {
	return Request{
		CheckoutForm: models.CheckoutForm{Email: "layla@example.ae", Address: sampleAddress()},
		CartItems: []models.CartItem{
			{CartItemID: "a", ProductID: "1", Name: "Salmon Kibble", UnitPrice: 50, Quantity: 2},
		},
		OrderSummary:  &models.OrderSummary{Subtotal: 100, Total: 100},
		PaymentMethod: method,
	}
}
