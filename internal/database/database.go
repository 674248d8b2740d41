package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"petshop_storefront/internal/config"
)

// Redis porte les commandes en attente, les tentatives de checkout, le rate
// limit et la diffusion de la progression.
var Redis *redis.Client

func ConnectDatabases(settings config.Settings) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connectRedis(ctx, settings)

	log.Println("✅ Toutes les bases de données sont connectées")
}

func connectRedis(ctx context.Context, settings config.Settings) {
	if settings.RedisHost == "" {
		log.Fatal("❌ REDIS_HOST non configuré")
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:         settings.RedisHost,
		Password:     settings.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

func CloseDatabases() {
	if Redis == nil {
		return
	}
	if err := Redis.Close(); err != nil {
		log.Printf("⚠️ Fermeture Redis : %v", err)
	}
}
