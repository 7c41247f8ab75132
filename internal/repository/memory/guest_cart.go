package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

type guestEntry struct {
	payload   []byte
	expiresAt time.Time
}

type guestCartStore struct {
	mu    sync.Mutex
	carts map[string]guestEntry
	now   func() time.Time
}

// NewGuestCartStore returns a GuestCartStore that keeps carts in process until
// their TTL elapses.
func NewGuestCartStore() repository.GuestCartStore {
	return &guestCartStore{carts: map[string]guestEntry{}, now: time.Now}
}

func (s *guestCartStore) Load(ctx context.Context, cartID string) (*entity.Cart, error) {
	s.mu.Lock()
	entry, ok := s.carts[cartID]
	if ok && !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.carts, cartID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, entity.ErrCartNotFound
	}

	var cart entity.Cart
	if err := json.Unmarshal(entry.payload, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}
	cart.Recalculate()
	return &cart, nil
}

func (s *guestCartStore) Save(ctx context.Context, cart *entity.Cart, ttl time.Duration) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}
	entry := guestEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.ID] = entry
	return nil
}

func (s *guestCartStore) Delete(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}
