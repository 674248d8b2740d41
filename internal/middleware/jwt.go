package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"petshop_storefront/internal/auth"
)

const sessionKey = "auth_session"

// Identity lit le token de l'API boutique s'il est présent et place la session
// dans le contexte Gin. Sans header, la requête continue anonyme : c'est au
// tunnel de commande de refuser le paiement.
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString, err := auth.BearerToken(header)
		if err != nil {
			log.Printf("❌ Format Authorization invalide")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header"})
			return
		}

		sess, err := auth.FromToken(tokenString, secret)
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please login again"})
			return
		case errors.Is(err, auth.ErrMissingUser):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID is missing"})
			return
		case err != nil:
			log.Printf("❌ Erreur parsing JWT: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(sessionKey, sess)
		c.Set("user_id", sess.UserID)
		c.Next()
	}
}

// CurrentSession renvoie la session posée par Identity, nil si anonyme.
func CurrentSession(c *gin.Context) *auth.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*auth.Session); ok {
			return sess
		}
	}
	return nil
}
