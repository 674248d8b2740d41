package checkout

import (
	"github.com/shopspring/decimal"

	"petshop_storefront/internal/models"
)

// Pricing : règles de calcul du récapitulatif (montants en AED).
type Pricing struct {
	FreeShippingThreshold float64
	ShippingFee           float64
	VATRate               float64
}

// Summary calcule sous-total, livraison, TVA et total du panier. La livraison
// est offerte au-delà du seuil ; un panier vide ne coûte rien.
func (p Pricing) Summary(items []models.CartItem) models.OrderSummary {
	subtotal := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)

	shipping := decimal.NewFromFloat(p.ShippingFee).Round(2)
	if subtotal.IsZero() || subtotal.GreaterThan(decimal.NewFromFloat(p.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	vat := subtotal.Mul(decimal.NewFromFloat(p.VATRate)).Round(2)
	total := subtotal.Add(shipping).Add(vat)

	return models.OrderSummary{
		Subtotal: subtotal.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		VAT:      vat.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

// CheckSummary vérifie un récapitulatif transmis par le front : montants
// positifs et total = sous-total + livraison + TVA (au centime près).
func CheckSummary(s models.OrderSummary) bool {
	for _, v := range []float64{s.Subtotal, s.Shipping, s.VAT, s.Total} {
		if v < 0 {
			return false
		}
	}
	sum := decimal.NewFromFloat(s.Subtotal).
		Add(decimal.NewFromFloat(s.Shipping)).
		Add(decimal.NewFromFloat(s.VAT))
	return sum.Sub(decimal.NewFromFloat(s.Total)).Abs().LessThan(decimal.New(1, -2))
}

// addAmounts additionne deux montants sans erreur d'arrondi binaire.
func addAmounts(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

func lineAmount(item models.CartItem, quantity int) float64 {
	return decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}
