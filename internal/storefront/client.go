// Package storefront est le client de l'API REST boutique : sessions de
// paiement, commandes, stock et lignes de panier.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"petshop_storefront/internal/auth"
	"petshop_storefront/internal/models"
)

const IdempotencyHeader = "Idempotency-Key"

const (
	opSession    = "create checkout session"
	opCreate     = "create order"
	opStock      = "update stock"
	opDeleteItem = "delete cart item"
)

var (
	ErrEmptyResponse = errors.New("réponse vide de l'API")
	ErrUnavailable   = errors.New("API boutique temporairement indisponible")
)

// APIError : l'API a répondu avec un statut hors 2xx.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

// StatusCode renvoie le statut HTTP porté par err, 0 si ce n'est pas une APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Paths struct {
	Session  string
	Orders   string
	Stock    string
	CartItem string // contient {cartItemId}
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Paths       Paths
	MaxFailures uint32
	HTTPClient  *http.Client
}

type Client struct {
	baseURL string
	paths   Paths
	timeout time.Duration
	http    *http.Client
	// un disjoncteur par opération : les pannes du stock ou du panier
	// n'ouvrent pas le circuit de la création de commande
	breakers map[string]*gobreaker.CircuitBreaker[*response]
}

type response struct {
	status int
	body   []byte
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker[*response])
	for _, op := range []string{opSession, opCreate, opStock, opDeleteItem} {
		breakers[op] = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
			Name:        "storefront-api/" + op,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("⚠️ Circuit %s : %s → %s", name, from, to)
			},
		})
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		paths:    opts.Paths,
		timeout:  opts.Timeout,
		http:     hc,
		breakers: breakers,
	}
}

// CreateCheckoutSession demande une session de paiement hébergée.
func (c *Client) CreateCheckoutSession(ctx context.Context, sess *auth.Session, req *models.PaymentSessionRequest) (*models.PaymentSession, error) {
	resp, err := c.do(ctx, sess, opSession, http.MethodPost, c.paths.Session, req, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID        string `json:"id"`
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, &out); err != nil {
			return nil, fmt.Errorf("réponse session illisible: %w", err)
		}
	}
	id := out.ID
	if id == "" {
		id = out.SessionID
	}
	return &models.PaymentSession{ID: id, URL: out.URL}, nil
}

// CreateOrder crée la commande. La clé d'idempotence est envoyée telle quelle ;
// rien ne garantit que l'API la déduplique.
func (c *Client) CreateOrder(ctx context.Context, sess *auth.Session, req *models.CreateOrderRequest, idempotencyKey string) (*models.CreatedOrder, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{IdempotencyHeader: idempotencyKey}
	}
	resp, err := c.do(ctx, sess, opCreate, http.MethodPost, c.paths.Orders, req, headers)
	if err != nil {
		return nil, err
	}
	return normalizeOrder(resp.body)
}

// UpdateStock décrémente le stock et renvoie le message éventuel de l'API.
func (c *Client) UpdateStock(ctx context.Context, sess *auth.Session, req *models.StockUpdateRequest) (string, error) {
	resp, err := c.do(ctx, sess, opStock, http.MethodPost, c.paths.Stock, req, nil)
	if err != nil {
		return "", err
	}
	return serverMessage(resp.body), nil
}

func (c *Client) DeleteCartItem(ctx context.Context, sess *auth.Session, cartItemID string) error {
	path := strings.ReplaceAll(c.paths.CartItem, "{cartItemId}", url.PathEscape(cartItemID))
	_, err := c.do(ctx, sess, opDeleteItem, http.MethodDelete, path, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, sess *auth.Session, op, method, path string, payload any, headers map[string]string) (*response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: sérialisation: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// Seuls les erreurs réseau et les 5xx comptent comme des échecs pour le disjoncteur.
	resp, err := c.breakers[op].Execute(func() (*response, error) {
		httpResp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()
		raw, _ := io.ReadAll(httpResp.Body)
		r := &response{status: httpResp.StatusCode, body: raw}
		if r.status >= 500 {
			return r, &APIError{Op: op, StatusCode: r.status, Message: messageOrStatus(raw, r.status)}
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.status < 200 || resp.status >= 300 {
		if resp.status == http.StatusUnauthorized {
			sess.Discard()
		}
		return nil, &APIError{Op: op, StatusCode: resp.status, Message: messageOrStatus(resp.body, resp.status)}
	}
	return resp, nil
}

func messageOrStatus(body []byte, status int) string {
	if msg := serverMessage(body); msg != "" {
		return msg
	}
	return http.StatusText(status)
}

func serverMessage(body []byte) string {
	var out struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	if out.Message != "" {
		return out.Message
	}
	return out.Error
}
