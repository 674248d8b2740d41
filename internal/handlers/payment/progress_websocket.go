package payment

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"petshop_storefront/internal/checkout"
	"petshop_storefront/internal/middleware"
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == h.frontendURL
		},
	}
}

// ProgressWebSocket pousse la progression de la finalisation (les trois
// étapes) à la page de résultat, jusqu'à l'état final.
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	slot := middleware.CheckoutSlot(c)
	ctx := c.Request.Context()

	events, stop, err := h.progress.SubscribeProgress(ctx, slot)
	if err != nil {
		log.Printf("❌ [%s] Abonnement progression: %v", slot, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live progress unavailable"})
		return
	}
	defer stop()

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	// lecture en tâche de fond pour détecter la fermeture côté client
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	hello := gin.H{"type": "connected"}
	if out, err := h.svc.Outcome(ctx, slot); err == nil {
		hello["outcome"] = out
	}
	if err := conn.WriteJSON(hello); err != nil {
		return
	}

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(gin.H{"type": "progress", "event": ev}); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
			if ev.State.IsTerminal() || ev.State == checkout.StateFailed {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
