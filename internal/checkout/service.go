package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"petshop_storefront/internal/auth"
	"petshop_storefront/internal/metrics"
	"petshop_storefront/internal/models"
	"petshop_storefront/internal/staging"
)

// SessionCreator obtient une session de paiement hébergée (API boutique ou Stripe).
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, sess *auth.Session, req *models.PaymentSessionRequest) (*models.PaymentSession, error)
}

var ErrNotRetryable = errors.New("only a failed checkout can be retried")

type Options struct {
	Sessions  SessionCreator
	Staging   staging.Store
	Attempts  AttemptStore
	Finalizer *Finalizer
	Notifier  Notifier
	Metrics   *metrics.Checkout

	Pricing         Pricing
	CardShippingFee float64

	SuccessURL        string
	CancelURL         string
	HostedCheckoutURL string // contient {SESSION_ID}
}

// Service est le point d'entrée du tunnel : initiation du paiement, retour de
// la page hébergée, annulation, relance.
type Service struct {
	opts Options
}

func NewService(opts Options) *Service {
	return &Service{opts: opts}
}

func (s *Service) Pricing() Pricing {
	return s.opts.Pricing
}

// Request est le corps envoyé par la page de checkout.
type Request struct {
	models.CheckoutForm
	CartItems     []models.CartItem    `json:"cartItems"`
	Quantities    map[string]int       `json:"quantities,omitempty"`
	OrderSummary  *models.OrderSummary `json:"orderSummary,omitempty"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

type Initiation struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	RedirectURL   string               `json:"redirectUrl,omitempty"`
	SessionID     string               `json:"sessionId,omitempty"`
	Outcome       *Outcome             `json:"outcome,omitempty"`
}

// Initiate valide la demande puis lance le paiement carte (session hébergée +
// mise de côté + redirection) ou finalise directement une commande payable à
// la livraison. Aucun appel réseau n'est fait si une précondition échoue.
func (s *Service) Initiate(ctx context.Context, sess *auth.Session, slot string, req Request) (*Initiation, error) {
	order, err := s.prepare(sess, req)
	if err != nil {
		s.opts.Metrics.Initiation(string(req.PaymentMethod), "rejected")
		return nil, err
	}

	if order.PaymentMethod == models.PaymentCashOnDelivery {
		out := s.finalize(ctx, sess, slot, order, nil)
		s.opts.Metrics.Initiation(string(order.PaymentMethod), string(out.State))
		return &Initiation{PaymentMethod: order.PaymentMethod, Outcome: out}, nil
	}
	return s.startCardPayment(ctx, sess, slot, order, nil)
}

// prepare contrôle, dans l'ordre, le formulaire, le panier puis l'identité.
func (s *Service) prepare(sess *auth.Session, req Request) (*models.PendingOrder, error) {
	fields := ValidateForm(req.CheckoutForm)
	if !req.PaymentMethod.Valid() {
		fields["paymentMethod"] = "Please choose a payment method"
	}
	if len(fields) > 0 {
		return nil, &Error{Kind: KindValidation, Message: "Please correct the highlighted fields", Fields: fields}
	}
	form := NormalizeForm(req.CheckoutForm)

	if len(req.CartItems) == 0 {
		return nil, &Error{Kind: KindValidation, Message: "Your cart is empty"}
	}

	order := &models.PendingOrder{
		CartItems:       req.CartItems,
		Quantities:      map[string]int{},
		DeliveryAddress: form.Address,
		Email:           form.Email,
		PaymentMethod:   req.PaymentMethod,
	}
	for k, q := range req.Quantities {
		order.Quantities[k] = q
	}

	priced := make([]models.CartItem, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		qty := order.QuantityFor(item)
		if item.CartItemID == "" || !validPrice(item.UnitPrice) || qty < 1 {
			return nil, &Error{Kind: KindValidation, Message: msgMissingInformation}
		}
		order.Quantities[item.CartItemID.String()] = qty
		item.Quantity = qty
		priced = append(priced, item)
	}

	if sess == nil || sess.UserID == "" || sess.Token() == "" {
		return nil, &Error{Kind: KindAuth, Message: msgMissingUser}
	}

	if req.OrderSummary != nil {
		if !CheckSummary(*req.OrderSummary) {
			return nil, &Error{Kind: KindValidation, Message: "The order summary does not add up"}
		}
		order.OrderSummary = *req.OrderSummary
	} else {
		order.OrderSummary = s.opts.Pricing.Summary(priced)
	}

	order.UserID = sess.UserID
	order.Token = sess.Token()
	order.TotalAmount = order.OrderSummary.Total
	order.IdempotencyKey = uuid.NewString()
	return order, nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// startCardPayment : session hébergée, mise de côté, redirection. Tout échec
// avant la redirection laisse l'API distante intacte et peut être relancé.
func (s *Service) startCardPayment(ctx context.Context, sess *auth.Session, slot string, order *models.PendingOrder, attempt *Attempt) (*Initiation, error) {
	if attempt == nil {
		attempt = &Attempt{}
	}
	attempt.Order = order

	order.TotalAmount = addAmounts(order.OrderSummary.Total, s.opts.CardShippingFee)

	lines := make([]models.PaymentLine, 0, len(order.CartItems))
	for _, item := range order.CartItems {
		qty := order.QuantityFor(item)
		lines = append(lines, models.PaymentLine{
			ID:          item.CartItemID,
			Name:        item.Name,
			TotalAmount: lineAmount(item, qty),
			Quantity:    qty,
		})
	}

	ps, err := s.opts.Sessions.CreateCheckoutSession(ctx, sess, &models.PaymentSessionRequest{
		Items:         lines,
		Amount:        order.TotalAmount,
		Currency:      models.Currency,
		CustomerEmail: order.Email,
		UserID:        order.UserID,
		SuccessURL:    s.opts.SuccessURL,
		CancelURL:     s.opts.CancelURL,
	})
	if err != nil {
		return nil, s.failPayment(ctx, slot, attempt, &Error{Kind: KindPaymentSession, Message: "Could not start the payment: " + reason(err), Err: err})
	}
	if ps == nil || ps.ID == "" {
		return nil, s.failPayment(ctx, slot, attempt, &Error{Kind: KindPaymentSession, Message: "Payment session id is missing"})
	}
	order.SessionID = ps.ID
	order.StagedAt = time.Now().UTC()

	if err := s.opts.Staging.Put(ctx, slot, order); err != nil {
		return nil, s.failPayment(ctx, slot, attempt, &Error{Kind: KindPaymentSession, Message: "Could not save your order before payment", Err: err})
	}

	redirect, err := s.redirectURL(ps)
	if err != nil {
		// le paiement n'aura pas lieu : la commande mise de côté est jetée
		if _, takeErr := s.opts.Staging.TakeOnce(ctx, slot); takeErr != nil && !errors.Is(takeErr, staging.ErrEmpty) {
			log.Printf("⚠️ [%s] Commande en attente non supprimée : %v", slot, takeErr)
		}
		return nil, s.failPayment(ctx, slot, attempt, &Error{Kind: KindPaymentRedirect, Message: "Could not redirect to the payment page", Err: err})
	}

	next := Outcome{
		State:         StateLoading,
		Stage:         StagePayment,
		PaymentMethod: order.PaymentMethod,
		Amount:        order.TotalAmount,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := transition(attempt, next); err != nil {
		return nil, err
	}
	s.saveAttempt(ctx, slot, attempt)
	s.opts.Metrics.Initiation(string(order.PaymentMethod), "redirect")
	log.Printf("💳 [%s] Session de paiement %s créée, redirection", slot, ps.ID)

	return &Initiation{
		PaymentMethod: order.PaymentMethod,
		RedirectURL:   redirect,
		SessionID:     ps.ID,
		Outcome:       &attempt.Outcome,
	}, nil
}

func (s *Service) failPayment(ctx context.Context, slot string, attempt *Attempt, cerr *Error) error {
	log.Printf("❌ [%s] Paiement non initié : %v", slot, cerr)
	if err := transition(attempt, paymentFailure(attempt.Order, cerr)); err != nil {
		log.Printf("⚠️ [%s] %v", slot, err)
	}
	s.saveAttempt(ctx, slot, attempt)
	s.opts.Metrics.Initiation(string(attempt.Order.PaymentMethod), "failed")
	s.opts.Metrics.Outcome(string(StateFailed))
	return cerr
}

func (s *Service) redirectURL(ps *models.PaymentSession) (string, error) {
	raw := ps.URL
	if raw == "" {
		tpl := s.opts.HostedCheckoutURL
		if !strings.Contains(tpl, "{SESSION_ID}") {
			return "", errors.New("aucune URL de paiement hébergé configurée")
		}
		raw = strings.ReplaceAll(tpl, "{SESSION_ID}", url.PathEscape(ps.ID))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("URL de redirection invalide : %q", raw)
	}
	return u.String(), nil
}

// Complete est appelé au retour de la page hébergée : la commande mise de
// côté est reprise (une seule fois) puis finalisée. Un rechargement de la page
// renvoie le résultat déjà obtenu.
func (s *Service) Complete(ctx context.Context, sess *auth.Session, slot string) (*Outcome, error) {
	order, err := s.opts.Staging.TakeOnce(ctx, slot)
	if errors.Is(err, staging.ErrEmpty) {
		if a, loadErr := s.opts.Attempts.LoadAttempt(ctx, slot); loadErr == nil && a.Outcome.Stage == StageFinalization {
			return &a.Outcome, nil
		}
		return nil, &Error{Kind: KindNoOrderData, Message: "No pending order was found"}
	}
	if err != nil {
		return nil, fmt.Errorf("lecture de la commande en attente : %w", err)
	}

	attempt, err := s.opts.Attempts.LoadAttempt(ctx, slot)
	if err != nil {
		attempt = &Attempt{}
	}
	return s.finalize(ctx, sess, slot, order, attempt), nil
}

// Cancel : l'utilisateur a quitté la page hébergée sans payer.
func (s *Service) Cancel(ctx context.Context, slot string) (*Outcome, error) {
	order, err := s.opts.Staging.TakeOnce(ctx, slot)
	if err != nil && !errors.Is(err, staging.ErrEmpty) {
		return nil, fmt.Errorf("lecture de la commande en attente : %w", err)
	}

	attempt, loadErr := s.opts.Attempts.LoadAttempt(ctx, slot)
	if loadErr != nil {
		attempt = &Attempt{}
	}
	if order == nil {
		order = attempt.Order
	}
	if order == nil {
		return nil, &Error{Kind: KindNoOrderData, Message: "No pending order was found"}
	}
	if attempt.Outcome.Stage == StageFinalization {
		return &attempt.Outcome, nil
	}

	attempt.Order = order
	if err := transition(attempt, paymentFailure(order, &Error{Kind: KindPaymentSession, Message: "Payment was cancelled"})); err != nil {
		return nil, err
	}
	s.saveAttempt(ctx, slot, attempt)
	s.opts.Metrics.Outcome(string(StateFailed))
	log.Printf("⚠️ [%s] Paiement annulé", slot)
	return &attempt.Outcome, nil
}

// Outcome renvoie l'état courant de la tentative.
func (s *Service) Outcome(ctx context.Context, slot string) (*Outcome, error) {
	a, err := s.opts.Attempts.LoadAttempt(ctx, slot)
	if errors.Is(err, ErrNoAttempt) {
		return nil, &Error{Kind: KindNoOrderData, Message: "No checkout in progress"}
	}
	if err != nil {
		return nil, err
	}
	return &a.Outcome, nil
}

// Retry relance une tentative échouée avec le même panier et la même adresse :
// nouvelle session de paiement si l'échec a eu lieu avant la redirection, sinon
// les trois étapes de finalisation depuis le début, avec la même clé d'idempotence.
func (s *Service) Retry(ctx context.Context, sess *auth.Session, slot string) (*Initiation, error) {
	attempt, err := s.opts.Attempts.LoadAttempt(ctx, slot)
	if errors.Is(err, ErrNoAttempt) {
		return nil, &Error{Kind: KindNoOrderData, Message: "No checkout to retry"}
	}
	if err != nil {
		return nil, err
	}
	if attempt.Outcome.State != StateFailed {
		return nil, ErrNotRetryable
	}
	if attempt.Order == nil {
		return nil, &Error{Kind: KindNoOrderData, Message: "No checkout to retry"}
	}
	if sess == nil || sess.UserID == "" || sess.Token() == "" {
		return nil, &Error{Kind: KindAuth, Message: msgMissingUser}
	}

	order := attempt.Order
	order.Token = sess.Token()
	if order.UserID == "" {
		order.UserID = sess.UserID
	}
	log.Printf("🔁 [%s] Relance (%s)", slot, attempt.Outcome.Stage)

	if attempt.Outcome.Stage == StagePayment {
		return s.startCardPayment(ctx, sess, slot, order, attempt)
	}
	out := s.finalize(ctx, sess, slot, order, attempt)
	return &Initiation{PaymentMethod: order.PaymentMethod, Outcome: out}, nil
}

// finalize passe la tentative en Processing, exécute l'orchestration puis
// enregistre l'état final. Les erreurs réseau s'arrêtent ici.
func (s *Service) finalize(ctx context.Context, current *auth.Session, slot string, order *models.PendingOrder, attempt *Attempt) *Outcome {
	// une fois la finalisation lancée, le départ du navigateur ne l'interrompt
	// plus ; chaque appel distant garde son propre timeout
	ctx = context.WithoutCancel(ctx)

	if attempt == nil {
		attempt = &Attempt{}
	}
	attempt.Order = order

	processing := Outcome{
		State:         StateProcessing,
		Stage:         StageFinalization,
		PaymentMethod: order.PaymentMethod,
		Amount:        order.TotalAmount,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := transition(attempt, processing); err != nil {
		log.Printf("⚠️ [%s] %v", slot, err)
		attempt.Outcome = processing
	}
	s.saveAttempt(ctx, slot, attempt)

	result, err := s.opts.Finalizer.Finalize(ctx, SessionFor(order, current), slot, order)
	if err != nil {
		log.Printf("❌ [%s] Finalisation interrompue : %v", slot, err)
	}

	if err := transition(attempt, finalizationOutcome(order, result)); err != nil {
		log.Printf("⚠️ [%s] %v", slot, err)
	}
	if attempt.Outcome.State.IsTerminal() {
		// plus rien à rejouer : on ne garde pas le token
		attempt.Order = nil
	}
	s.saveAttempt(ctx, slot, attempt)
	s.opts.Metrics.Outcome(string(attempt.Outcome.State))

	if result.ProcessingSteps.OrderCreated && s.opts.Notifier != nil {
		s.opts.Notifier.OrderConfirmed(order, result)
	}
	return &attempt.Outcome
}

func (s *Service) saveAttempt(ctx context.Context, slot string, a *Attempt) {
	if s.opts.Attempts == nil {
		return
	}
	if err := s.opts.Attempts.SaveAttempt(ctx, slot, a); err != nil {
		log.Printf("⚠️ [%s] Tentative non enregistrée : %v", slot, err)
	}
}

// SessionFor choisit l'identité de la finalisation : la session courante si
// elle appartient au même utilisateur, sinon celle mise de côté avec la commande.
// La session courante est renvoyée telle quelle : un 401 de l'API pendant la
// finalisation vide donc aussi le token de la requête en cours.
func SessionFor(order *models.PendingOrder, current *auth.Session) *auth.Session {
	if current.Authenticated() && (order.UserID == "" || current.UserID == order.UserID) {
		return current
	}
	return auth.NewSession(order.UserID, order.Email, order.DeliveryAddress.FullName, order.Token)
}
