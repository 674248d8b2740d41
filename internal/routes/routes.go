package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"petshop_storefront/internal/handlers"
	"petshop_storefront/internal/handlers/payment"
	"petshop_storefront/internal/metrics"
	"petshop_storefront/internal/middleware"
)

type Deps struct {
	Redis       redis.Cmdable
	Payment     *payment.Handler
	RateLimiter middleware.RateLimiter
	Cookies     sessions.Store

	FrontendURL string
	JWTSecret   []byte

	CheckoutMaxRequests int
	CheckoutWindow      time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.Health(d.Redis))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Checkout
	checkout := r.Group("/api/checkout", middleware.CheckoutSession(d.Cookies), middleware.Identity(d.JWTSecret))
	{
		checkout.POST("", middleware.CheckoutRateLimit(d.RateLimiter, d.CheckoutMaxRequests, d.CheckoutWindow), d.Payment.Checkout)
		checkout.POST("/validate", d.Payment.ValidateForm)
		checkout.GET("/shipping-quote", d.Payment.ShippingQuote)

		// Retour de la page de paiement hébergée
		checkout.POST("/complete", d.Payment.Complete)
		checkout.POST("/cancel", d.Payment.Cancel)
		checkout.GET("/outcome", d.Payment.Outcome)
		checkout.POST("/retry", d.Payment.Retry)
		checkout.GET("/progress", d.Payment.ProgressWebSocket)
	}
}
