package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type RateLimiter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
	RateLimitTTL(ctx context.Context, key string) time.Duration
}

// CheckoutRateLimit limite les initiations de paiement par IP : chaque
// tentative peut créer une session de paiement ou une commande distante.
func CheckoutRateLimit(limiter RateLimiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "checkout_requests:" + c.ClientIP()

		requests, err := limiter.IncrementRateLimit(ctx, key, window)
		if err != nil {
			// Redis indisponible : on laisse passer
			log.Printf("⚠️ Rate limit indisponible: %v", err)
			c.Next()
			return
		}

		if requests > int64(maxRequests) {
			retryAfter := limiter.RateLimitTTL(ctx, key)
			if retryAfter <= 0 {
				retryAfter = window
			}
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Too many checkout attempts. Please try again in %d seconds", int(retryAfter.Seconds())),
				"retry_after": int(retryAfter.Seconds()),
			})
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int64(maxRequests)-requests))
		c.Next()
	}
}
