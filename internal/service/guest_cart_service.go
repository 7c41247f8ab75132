package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

// GuestCartService keeps carts for visitors who have not signed in. Each cart
// lives in the guest store under an id handed back to the client.
type GuestCartService struct {
	products repository.ProductRepository
	carts    repository.GuestCartStore
	ttl      time.Duration
}

func NewGuestCartService(store repository.UnitOfWork, carts repository.GuestCartStore, ttl time.Duration) *GuestCartService {
	return &GuestCartService{
		products: store.Repositories().Products,
		carts:    carts,
		ttl:      ttl,
	}
}

// Get returns the guest cart. Unknown or expired ids yield an empty cart
// without an id.
func (s *GuestCartService) Get(ctx context.Context, cartID string) (*entity.Cart, error) {
	if cartID == "" {
		return entity.NewCart("", ""), nil
	}
	cart, err := s.carts.Load(ctx, cartID)
	if errors.Is(err, entity.ErrCartNotFound) {
		return entity.NewCart("", ""), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds a product to the guest cart. The cart and its id are created
// on the first add.
func (s *GuestCartService) AddItem(ctx context.Context, cartID, productID string, quantity int) (*entity.Cart, error) {
	slog.Info("Service: Adding item to guest cart", "guest_cart_id", cartID, "product_id", productID, "quantity", quantity)

	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := cart.AddItem(productID, quantity, product.Snapshot()); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart, s.ttl); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets a line's quantity against live stock. Zero or less removes
// the line.
func (s *GuestCartService) UpdateItem(ctx context.Context, cartID, itemID string, quantity int) (*entity.Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.ID == "" {
		if quantity <= 0 {
			return cart, nil
		}
		return nil, entity.ErrCartItemNotFound
	}

	if item, ok := cart.Item(itemID); ok && quantity > 0 {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		cart.SetStock(product.ID, product.Stock)
	}
	if err := cart.UpdateQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart, s.ttl); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a line. Removing a missing line succeeds.
func (s *GuestCartService) RemoveItem(ctx context.Context, cartID, itemID string) (*entity.Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if _, ok := cart.Item(itemID); !ok {
		return cart, nil
	}
	cart.RemoveItem(itemID)
	if err := s.carts.Save(ctx, cart, s.ttl); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear discards the guest cart and its id.
func (s *GuestCartService) Clear(ctx context.Context, cartID string) error {
	if cartID == "" {
		return nil
	}
	if err := s.carts.Delete(ctx, cartID); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	return nil
}
