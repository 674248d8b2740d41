package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v83"

	"petshop_storefront/internal/cache"
	"petshop_storefront/internal/checkout"
	"petshop_storefront/internal/config"
	"petshop_storefront/internal/database"
	"petshop_storefront/internal/handlers/payment"
	"petshop_storefront/internal/metrics"
	"petshop_storefront/internal/middleware"
	"petshop_storefront/internal/routes"
	"petshop_storefront/internal/services"
	"petshop_storefront/internal/staging"
	"petshop_storefront/internal/storefront"
	"petshop_storefront/internal/utils"
)

func main() {
	config.Load()
	settings := config.FromEnv()

	if settings.APIBaseURL == "" {
		log.Fatal("❌ STOREFRONT_API_URL manquant dans .env")
	}
	if settings.SessionSecret == "" {
		log.Fatal("❌ SESSION_SECRET manquant dans .env")
	}

	database.ConnectDatabases(settings)
	defer database.CloseDatabases()

	api := storefront.NewClient(storefront.Options{
		BaseURL: settings.APIBaseURL,
		Timeout: settings.APITimeout,
		Paths: storefront.Paths{
			Session:  settings.SessionPath,
			Orders:   settings.OrdersPath,
			Stock:    settings.StockPath,
			CartItem: settings.CartItemPath,
		},
		MaxFailures: settings.BreakerMaxFailure,
	})

	var sessionCreator checkout.SessionCreator = api
	if settings.PaymentProvider == "stripe" {
		stripe.Key = settings.StripeSecretKey
		if stripe.Key == "" {
			log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
		}
		sessionCreator = services.NewStripeSessions()
		log.Println("✅ Stripe initialisé")
	}

	registry := prometheus.DefaultRegisterer
	checkoutMetrics := metrics.NewCheckout(registry)

	checkoutCache := cache.NewCheckoutCache(database.Redis, settings.OutcomeTTL)
	mailer := utils.NewMailer(utils.SMTPConfig{
		Host:     settings.SMTPHost,
		Port:     settings.SMTPPort,
		Username: settings.SMTPUsername,
		Password: settings.SMTPPassword,
		From:     settings.MailFrom,
	}, settings.FrontendURL)
	if !mailer.Enabled() {
		log.Println("⚠️ SMTP non configuré, pas d'email de confirmation")
	}

	svc := checkout.NewService(checkout.Options{
		Sessions:  sessionCreator,
		Staging:   staging.NewRedisStore(database.Redis, settings.StagingTTL),
		Attempts:  checkoutCache,
		Finalizer: checkout.NewFinalizer(api, checkoutCache, checkoutMetrics),
		Notifier:  mailer,
		Metrics:   checkoutMetrics,
		Pricing: checkout.Pricing{
			FreeShippingThreshold: settings.FreeShippingThreshold,
			ShippingFee:           settings.ShippingFee,
			VATRate:               settings.VATRate,
		},
		CardShippingFee:   settings.CardShippingFee,
		SuccessURL:        settings.FrontendURL + settings.SuccessPath,
		CancelURL:         settings.FrontendURL + settings.CancelPath,
		HostedCheckoutURL: settings.HostedCheckoutURL,
	})

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		Redis:               database.Redis,
		Payment:             payment.NewHandler(svc, checkoutCache, settings.FrontendURL),
		RateLimiter:         checkoutCache,
		Cookies:             middleware.NewCookieStore(settings.SessionSecret, settings.CookieSecure),
		FrontendURL:         settings.FrontendURL,
		JWTSecret:           []byte(settings.JWTSecret),
		CheckoutMaxRequests: settings.CheckoutMaxRequests,
		CheckoutWindow:      settings.CheckoutWindow,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur Petshop lancé sur le port", settings.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Erreur serveur:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🧹 Arrêt du serveur...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
}
