package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

type cartRepository struct {
	db DBTX
}

// NewCartRepository creates a new CartRepository backed by Postgres.
func NewCartRepository(db DBTX) repository.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUser(ctx context.Context, userID string) (*entity.Cart, error) {
	var cartID string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id = $1", userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	// Stock and title come from the live product; the price stays the snapshot.
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, p.title, ci.quantity, ci.unit_price, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at, ci.id`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	cart := entity.NewCart(cartID, userID)
	for rows.Next() {
		var (
			item  entity.CartItem
			stock int
		)
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Title, &item.Quantity, &item.UnitPrice, &stock); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.Stock = &stock
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart item rows: %w", err)
	}

	cart.Recalculate()
	return cart, nil
}

// Lock takes the cart row lock. Checkout and cart mutations take it before
// reading items, so they never act on a cart another transaction is changing.
func (r *cartRepository) Lock(ctx context.Context, userID string) error {
	var cartID string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id = $1 FOR UPDATE", userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrCartNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock cart: %w", err)
	}
	return nil
}

// Create returns the user's cart, creating it if needed. Concurrent first adds
// converge on the same row through the unique user_id.
func (r *cartRepository) Create(ctx context.Context, userID string) (*entity.Cart, error) {
	var cartID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING id`,
		uuid.NewString(), userID,
	).Scan(&cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return entity.NewCart(cartID, userID), nil
}

func (r *cartRepository) SaveItem(ctx context.Context, cartID string, item entity.CartItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		item.ID, cartID, item.ProductID, item.Quantity, item.UnitPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1 AND cart_id = $2", itemID, cartID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *cartRepository) RemoveItems(ctx context.Context, cartID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND id = ANY($2)",
		cartID, pq.Array(itemIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n != int64(len(itemIDs)) {
		return fmt.Errorf("%w: removed %d of %d lines", entity.ErrCartChanged, n, len(itemIDs))
	}
	return r.touch(ctx, cartID)
}

func (r *cartRepository) touch(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE carts SET updated_at = NOW() WHERE id = $1", cartID)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}
