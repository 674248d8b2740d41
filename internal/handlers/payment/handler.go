package payment

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"petshop_storefront/internal/checkout"
	"petshop_storefront/internal/utils"
)

// ProgressSubscriber fournit le flux de progression d'une session de checkout.
type ProgressSubscriber interface {
	SubscribeProgress(ctx context.Context, slot string) (<-chan checkout.ProgressEvent, func(), error)
}

type Handler struct {
	svc         *checkout.Service
	progress    ProgressSubscriber
	frontendURL string
	cartPath    string
}

func NewHandler(svc *checkout.Service, progress ProgressSubscriber, frontendURL string) *Handler {
	return &Handler{svc: svc, progress: progress, frontendURL: frontendURL, cartPath: "/cart"}
}

// outcomeResponse ajoute le QR de la commande quand elle existe.
func (h *Handler) outcomeResponse(out *checkout.Outcome) gin.H {
	resp := gin.H{"outcome": out}
	if out != nil && out.Result != nil && out.Result.ProcessingSteps.OrderCreated {
		qr, err := utils.OrderQRDataURL(utils.OrderLink(h.frontendURL, out.Result.OrderID))
		if err != nil {
			log.Printf("⚠️ QR commande %s: %v", out.Result.OrderID, err)
		} else {
			resp["orderQr"] = qr
		}
	}
	return resp
}

// respondError traduit les erreurs du tunnel en réponses HTTP.
func (h *Handler) respondError(c *gin.Context, slot string, err error) {
	var cerr *checkout.Error
	if errors.Is(err, checkout.ErrNotRetryable) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if !errors.As(err, &cerr) {
		log.Printf("❌ [%s] Erreur checkout: %v", slot, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
		return
	}

	body := gin.H{"error": cerr.Message, "kind": cerr.Kind}
	switch cerr.Kind {
	case checkout.KindValidation:
		if len(cerr.Fields) > 0 {
			body["fields"] = cerr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case checkout.KindAuth:
		c.JSON(http.StatusUnauthorized, body)
	case checkout.KindNoOrderData:
		body["redirect"] = h.cartPath
		c.JSON(http.StatusNotFound, body)
	case checkout.KindPaymentSession, checkout.KindPaymentRedirect:
		if out, loadErr := h.svc.Outcome(c.Request.Context(), slot); loadErr == nil {
			body["outcome"] = out
		}
		c.JSON(http.StatusBadGateway, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
