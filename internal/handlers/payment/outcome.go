package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"petshop_storefront/internal/middleware"
)

// Complete est appelé par la page de succès au retour de la page de paiement.
func (h *Handler) Complete(c *gin.Context) {
	slot := middleware.CheckoutSlot(c)
	out, err := h.svc.Complete(c.Request.Context(), middleware.CurrentSession(c), slot)
	if err != nil {
		h.respondError(c, slot, err)
		return
	}
	c.JSON(http.StatusOK, h.outcomeResponse(out))
}

// Cancel est appelé par la page d'échec quand l'utilisateur abandonne le paiement.
func (h *Handler) Cancel(c *gin.Context) {
	slot := middleware.CheckoutSlot(c)
	out, err := h.svc.Cancel(c.Request.Context(), slot)
	if err != nil {
		h.respondError(c, slot, err)
		return
	}
	c.JSON(http.StatusOK, h.outcomeResponse(out))
}

func (h *Handler) Outcome(c *gin.Context) {
	slot := middleware.CheckoutSlot(c)
	out, err := h.svc.Outcome(c.Request.Context(), slot)
	if err != nil {
		h.respondError(c, slot, err)
		return
	}
	c.JSON(http.StatusOK, h.outcomeResponse(out))
}

// Retry relance une tentative en échec avec le même panier et la même adresse.
func (h *Handler) Retry(c *gin.Context) {
	slot := middleware.CheckoutSlot(c)
	started, err := h.svc.Retry(c.Request.Context(), middleware.CurrentSession(c), slot)
	if err != nil {
		h.respondError(c, slot, err)
		return
	}
	if started.RedirectURL != "" {
		c.JSON(http.StatusOK, started)
		return
	}
	c.JSON(http.StatusOK, h.outcomeResponse(started.Outcome))
}
