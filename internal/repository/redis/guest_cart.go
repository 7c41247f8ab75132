package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "guest_cart:"

type guestCartStore struct {
	client goredis.UniversalClient
}

// NewGuestCartStore creates a GuestCartStore that keeps each guest cart as a
// JSON value under its own key.
func NewGuestCartStore(client goredis.UniversalClient) repository.GuestCartStore {
	return &guestCartStore{client: client}
}

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (s *guestCartStore) Load(ctx context.Context, cartID string) (*entity.Cart, error) {
	payload, err := s.client.Get(ctx, keyPrefix+cartID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, entity.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	var cart entity.Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []entity.CartItem{}
	}
	cart.Recalculate()
	return &cart, nil
}

// Save writes the cart and restarts its TTL. A zero ttl keeps it forever.
func (s *guestCartStore) Save(ctx context.Context, cart *entity.Cart, ttl time.Duration) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+cart.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save guest cart: %w", err)
	}
	return nil
}

func (s *guestCartStore) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, keyPrefix+cartID).Err(); err != nil {
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	return nil
}
