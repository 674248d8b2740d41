package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"petshop_storefront/internal/checkout"
)

const (
	attemptPrefix  = "checkout:attempt:"
	progressPrefix = "checkout:progress:"
)

// CheckoutCache conserve la dernière tentative de checkout de chaque session
// et diffuse la progression de la finalisation via pub/sub.
type CheckoutCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewCheckoutCache(client redis.UniversalClient, ttl time.Duration) *CheckoutCache {
	return &CheckoutCache{client: client, ttl: ttl}
}

// --- Tentatives ---

func (c *CheckoutCache) SaveAttempt(ctx context.Context, slot string, attempt *checkout.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("sérialisation tentative: %w", err)
	}
	return c.client.Set(ctx, attemptPrefix+slot, data, c.ttl).Err()
}

func (c *CheckoutCache) LoadAttempt(ctx context.Context, slot string) (*checkout.Attempt, error) {
	data, err := c.client.Get(ctx, attemptPrefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, checkout.ErrNoAttempt
	}
	if err != nil {
		return nil, err
	}
	var attempt checkout.Attempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("tentative illisible: %w", err)
	}
	return &attempt, nil
}

// --- Progression temps réel ---

func (c *CheckoutCache) PublishProgress(ctx context.Context, slot string, event checkout.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, progressPrefix+slot, data).Err()
}

// SubscribeProgress s'abonne aux événements d'une session. Le canal est fermé
// quand ctx est annulé.
func (c *CheckoutCache) SubscribeProgress(ctx context.Context, slot string) (<-chan checkout.ProgressEvent, func(), error) {
	pubsub := c.client.Subscribe(ctx, progressPrefix+slot)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan checkout.ProgressEvent)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev checkout.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("⚠️ Événement de progression illisible: %v", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { pubsub.Close() }, nil
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur (fenêtre glissante).
func (c *CheckoutCache) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *CheckoutCache) RateLimitTTL(ctx context.Context, key string) time.Duration {
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}
