package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

// CartService manages the carts of signed-in users. Every mutation re-reads
// the product inside a transaction so that stock checks see current values.
type CartService struct {
	store repository.UnitOfWork
}

func NewCartService(store repository.UnitOfWork) *CartService {
	return &CartService{store: store}
}

// GetCart returns the user's cart, creating an empty one on first use.
func (s *CartService) GetCart(ctx context.Context, userID string) (*entity.Cart, error) {
	repos := s.store.Repositories()
	cart, err := repos.Carts.FindByUser(ctx, userID)
	if errors.Is(err, entity.ErrCartNotFound) {
		cart, err = repos.Carts.Create(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

// AddToCart adds quantity units of a product, summing with any existing line.
func (s *CartService) AddToCart(ctx context.Context, userID, productID string, quantity int) (*entity.CartItem, error) {
	slog.Info("Service: Adding item to cart", "user_id", userID, "product_id", productID, "quantity", quantity)

	if quantity <= 0 {
		return nil, entity.ErrInvalidQuantity
	}

	var added *entity.CartItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cart, err := userCart(ctx, repos, userID, true)
		if err != nil {
			return err
		}

		product, err := lockProduct(ctx, repos, productID)
		if err != nil {
			return err
		}

		item, err := cart.AddItem(productID, quantity, product.Snapshot())
		if err != nil {
			return err
		}
		if err := repos.Carts.SaveItem(ctx, cart.ID, *item); err != nil {
			return err
		}
		added = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateCartItem sets a line's quantity against live stock. Zero or less
// deletes the line.
func (s *CartService) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) error {
	slog.Info("Service: Updating cart item", "user_id", userID, "item_id", itemID, "quantity", quantity)

	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cart, err := userCart(ctx, repos, userID, false)
		if errors.Is(err, entity.ErrCartNotFound) {
			if quantity <= 0 {
				return nil
			}
			return entity.ErrCartItemNotFound
		}
		if err != nil {
			return err
		}

		if quantity <= 0 {
			return repos.Carts.DeleteItem(ctx, cart.ID, itemID)
		}

		item, ok := cart.Item(itemID)
		if !ok {
			return entity.ErrCartItemNotFound
		}
		product, err := lockProduct(ctx, repos, item.ProductID)
		if err != nil {
			return err
		}
		cart.SetStock(product.ID, product.Stock)

		if err := cart.UpdateQuantity(itemID, quantity); err != nil {
			return err
		}
		item, _ = cart.Item(itemID)
		return repos.Carts.SaveItem(ctx, cart.ID, item)
	})
}

// RemoveCartItem deletes a line. Removing a missing line succeeds.
func (s *CartService) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	slog.Info("Service: Removing cart item", "user_id", userID, "item_id", itemID)

	repos := s.store.Repositories()
	cart, err := repos.Carts.FindByUser(ctx, userID)
	if errors.Is(err, entity.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	return repos.Carts.DeleteItem(ctx, cart.ID, itemID)
}

// userCart locks the user's cart and then reads it. Callers lock the cart
// before any product, the same order checkout uses.
func userCart(ctx context.Context, repos repository.Repositories, userID string, create bool) (*entity.Cart, error) {
	err := repos.Carts.Lock(ctx, userID)
	if errors.Is(err, entity.ErrCartNotFound) && create {
		_, err = repos.Carts.Create(ctx, userID)
	}
	if errors.Is(err, entity.ErrCartNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}

	cart, err := repos.Carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func lockProduct(ctx context.Context, repos repository.Repositories, productID string) (*entity.Product, error) {
	products, err := repos.Products.LockForUpdate(ctx, []string{productID})
	if err != nil {
		return nil, fmt.Errorf("failed to read product: %w", err)
	}
	product, ok := products[productID]
	if !ok {
		return nil, entity.ErrProductNotFound
	}
	return &product, nil
}
