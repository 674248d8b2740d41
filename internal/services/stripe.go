package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"

	"petshop_storefront/internal/auth"
	"petshop_storefront/internal/models"
)

// StripeSessions crée la session de paiement hébergée directement chez Stripe
// (PAYMENT_SESSION_PROVIDER=stripe). stripe.Key est initialisée dans main.
type StripeSessions struct{}

func NewStripeSessions() *StripeSessions {
	return &StripeSessions{}
}

func (s *StripeSessions) CreateCheckoutSession(ctx context.Context, _ *auth.Session, req *models.PaymentSessionRequest) (*models.PaymentSession, error) {
	params, err := requestParams(ctx, req)
	if err != nil {
		return nil, err
	}

	cs, err := session.New(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe: %v", err)
		return nil, err
	}

	log.Printf("💳 Session Stripe créée: %s (%.2f %s) pour %s", cs.ID, req.Amount, req.Currency, req.UserID)
	return &models.PaymentSession{ID: cs.ID, URL: cs.URL}, nil
}

// requestParams rattache l'appel Stripe au contexte de la requête (délai, annulation).
func requestParams(ctx context.Context, req *models.PaymentSessionRequest) (*stripe.CheckoutSessionParams, error) {
	params, err := checkoutSessionParams(req)
	if err != nil {
		return nil, err
	}
	params.Context = ctx
	return params, nil
}

// checkoutSessionParams convertit la demande en lignes Stripe (montants en
// fils). L'écart entre le total et la somme des lignes (livraison, TVA)
// devient une ligne à part.
func checkoutSessionParams(req *models.PaymentSessionRequest) (*stripe.CheckoutSessionParams, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("aucune ligne à payer")
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = strings.ToLower(models.Currency)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		Metadata: map[string]string{
			"user_id": req.UserID,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	var linesTotal int64
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("quantité invalide pour %s", line.ID)
		}
		qty := int64(line.Quantity)
		lineMinor := minorUnits(decimal.NewFromFloat(line.TotalAmount))
		linesTotal += lineMinor
		if lineMinor%qty == 0 {
			params.LineItems = append(params.LineItems, lineItem(currency, line.Name, lineMinor/qty, qty))
			continue
		}
		// prix unitaire non entier en fils : une seule ligne au montant exact
		params.LineItems = append(params.LineItems, lineItem(currency, fmt.Sprintf("%s × %d", line.Name, qty), lineMinor, 1))
	}

	extra := minorUnits(decimal.NewFromFloat(req.Amount)) - linesTotal
	if extra < 0 {
		return nil, fmt.Errorf("montant %.2f inférieur à la somme des lignes", req.Amount)
	}
	if extra > 0 {
		params.LineItems = append(params.LineItems, lineItem(currency, "Shipping & VAT", extra, 1))
	}
	return params, nil
}

func lineItem(currency, name string, unitAmount, quantity int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(unitAmount),
		},
		Quantity: stripe.Int64(quantity),
	}
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
