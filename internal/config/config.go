package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

type Settings struct {
	Port        string
	FrontendURL string

	// API REST distante
	APIBaseURL        string
	APITimeout        time.Duration
	SessionPath       string
	OrdersPath        string
	StockPath         string
	CartItemPath      string
	BreakerMaxFailure uint32

	// Page de paiement hébergée
	PaymentProvider   string // "api" | "stripe"
	HostedCheckoutURL string
	StripeSecretKey   string
	SuccessPath       string
	CancelPath        string

	RedisHost     string
	RedisPassword string
	StagingTTL    time.Duration
	OutcomeTTL    time.Duration

	JWTSecret     string
	SessionSecret string
	CookieSecure  bool

	// Tarification (AED)
	FreeShippingThreshold float64
	ShippingFee           float64
	CardShippingFee       float64
	VATRate               float64

	CheckoutMaxRequests int
	CheckoutWindow      time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

func FromEnv() Settings {
	return Settings{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		APIBaseURL:        strings.TrimRight(os.Getenv("STOREFRONT_API_URL"), "/"),
		APITimeout:        getDuration("STOREFRONT_API_TIMEOUT", 15*time.Second),
		SessionPath:       getEnv("STOREFRONT_SESSION_PATH", "/payment/create-checkout-session"),
		OrdersPath:        getEnv("STOREFRONT_ORDERS_PATH", "/orders"),
		StockPath:         getEnv("STOREFRONT_STOCK_PATH", "/products/update-stock"),
		CartItemPath:      getEnv("STOREFRONT_CART_ITEM_PATH", "/cart/{cartItemId}"),
		BreakerMaxFailure: uint32(getInt("STOREFRONT_BREAKER_MAX_FAILURES", 5)),

		PaymentProvider:   strings.ToLower(getEnv("PAYMENT_SESSION_PROVIDER", "api")),
		HostedCheckoutURL: getEnv("HOSTED_CHECKOUT_URL", "https://checkout.stripe.com/c/pay/{SESSION_ID}"),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		SuccessPath:       getEnv("CHECKOUT_SUCCESS_PATH", "/payment-success"),
		CancelPath:        getEnv("CHECKOUT_CANCEL_PATH", "/payment-failed"),

		RedisHost:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		StagingTTL:    getDuration("STAGING_TTL", 0),
		OutcomeTTL:    getDuration("OUTCOME_TTL", time.Hour),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		CookieSecure:  getBool("COOKIE_SECURE", false),

		FreeShippingThreshold: getFloat("FREE_SHIPPING_THRESHOLD", 200),
		ShippingFee:           getFloat("SHIPPING_FEE", 25),
		CardShippingFee:       getFloat("CARD_SHIPPING_FEE", 0),
		VATRate:               getFloat("VAT_RATE", 0.05),

		CheckoutMaxRequests: getInt("CHECKOUT_MAX_REQUESTS", 10),
		CheckoutWindow:      getDuration("CHECKOUT_WINDOW", time.Minute),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@petshop.ae"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
