package payment

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"petshop_storefront/internal/checkout"
	"petshop_storefront/internal/middleware"
	"petshop_storefront/internal/models"
)

// Checkout valide le formulaire et le panier puis lance le paiement : URL de
// redirection pour la carte, résultat de la commande pour le paiement à la livraison.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	slot := middleware.CheckoutSlot(c)
	started, err := h.svc.Initiate(c.Request.Context(), middleware.CurrentSession(c), slot, req)
	if err != nil {
		h.respondError(c, slot, err)
		return
	}

	if started.RedirectURL != "" {
		c.JSON(http.StatusOK, started)
		return
	}

	log.Printf("📦 [%s] Commande à la livraison : %s", slot, started.Outcome.State)
	resp := h.outcomeResponse(started.Outcome)
	resp["paymentMethod"] = started.PaymentMethod
	c.JSON(http.StatusOK, resp)
}

// ValidateForm renvoie les erreurs champ par champ, sans appel à l'API.
func (h *Handler) ValidateForm(c *gin.Context) {
	var form models.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	errs := checkout.ValidateForm(form)
	c.JSON(http.StatusOK, gin.H{"valid": len(errs) == 0, "errors": errs})
}

// ShippingQuote calcule le récapitulatif (livraison, TVA, total) pour un sous-total.
func (h *Handler) ShippingQuote(c *gin.Context) {
	subtotal, err := strconv.ParseFloat(c.Query("subtotal"), 64)
	if err != nil || subtotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subtotal must be a positive amount"})
		return
	}

	pricing := h.svc.Pricing()
	var items []models.CartItem
	if subtotal > 0 {
		items = []models.CartItem{{UnitPrice: subtotal, Quantity: 1}}
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":               pricing.Summary(items),
		"currency":              models.Currency,
		"freeShippingThreshold": pricing.FreeShippingThreshold,
	})
}
