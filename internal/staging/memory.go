package staging

import (
	"context"
	"encoding/json"
	"sync"

	"petshop_storefront/internal/models"
)

// MemoryStore garde les commandes en mémoire (tests, mode sans Redis).
// Les commandes sont copiées via JSON pour reproduire le passage par Redis.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, slot string, order *models.PendingOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.slots[slot] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) TakeOnce(_ context.Context, slot string) (*models.PendingOrder, error) {
	s.mu.Lock()
	data, ok := s.slots[slot]
	delete(s.slots, slot)
	s.mu.Unlock()

	if !ok {
		return nil, ErrEmpty
	}
	var order models.PendingOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Len : nombre d'emplacements occupés
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
