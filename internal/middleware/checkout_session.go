package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	checkoutCookie = "petshop_checkout"
	slotKey        = "checkout_slot"
)

// NewCookieStore configure le cookie signé qui porte l'identifiant de session
// de checkout.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CheckoutSession attribue à chaque navigateur un identifiant de checkout
// stable. Il désigne l'emplacement de la commande en attente et de la
// tentative en cours, et survit à l'aller-retour vers la page de paiement.
func CheckoutSession(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, checkoutCookie)
		if err != nil {
			log.Printf("⚠️ Cookie de checkout illisible, nouveau cookie: %v", err)
		}

		slot, _ := session.Values["sid"].(string)
		if slot == "" {
			slot = uuid.NewString()
			session.Values["sid"] = slot
			if err := session.Save(c.Request, c.Writer); err != nil {
				log.Printf("❌ Enregistrement du cookie de checkout: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not start a checkout session"})
				return
			}
		}

		c.Set(slotKey, slot)
		c.Next()
	}
}

func CheckoutSlot(c *gin.Context) string {
	return c.GetString(slotKey)
}
