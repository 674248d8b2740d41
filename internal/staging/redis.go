package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"petshop_storefront/internal/models"
)

const keyPrefix = "checkout:pending:"

type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration // 0 = pas d'expiration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, slot string, order *models.PendingOrder) error {
	if slot == "" {
		return errors.New("emplacement de staging vide")
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("sérialisation commande en attente: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+slot, data, s.ttl).Err()
}

// TakeOnce s'appuie sur GETDEL : deux lectures concurrentes ne peuvent pas
// obtenir toutes les deux la commande.
func (s *RedisStore) TakeOnce(ctx context.Context, slot string) (*models.PendingOrder, error) {
	data, err := s.client.GetDel(ctx, keyPrefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}

	var order models.PendingOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("commande en attente illisible: %w", err)
	}
	return &order, nil
}
