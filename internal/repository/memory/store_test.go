package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Repositories().Products.Seed(context.Background(), []entity.Product{
		{ID: "cookie", Title: "Cookie", Price: decimal.RequireFromString("2.50"), Stock: 5},
	}))
	return s
}

func TestStore_WithinTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		require.NoError(t, repos.Products.DecrementStock(ctx, "cookie", 2))
		cart, err := repos.Carts.Create(ctx, "user-1")
		require.NoError(t, err)
		require.NoError(t, repos.Carts.SaveItem(ctx, cart.ID, entity.CartItem{ID: "line", ProductID: "cookie", Quantity: 1}))
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	p, err := s.Repositories().Products.FindByID(ctx, "cookie")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	_, err = s.Repositories().Carts.FindByUser(ctx, "user-1")
	assert.ErrorIs(t, err, entity.ErrCartNotFound)
}

func TestStore_WithinTx_Commit(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Products.DecrementStock(ctx, "cookie", 5)
	}))

	p, err := s.Repositories().Products.FindByID(ctx, "cookie")
	require.NoError(t, err)
	assert.Zero(t, p.Stock)

	err = s.Repositories().Products.DecrementStock(ctx, "cookie", 1)
	assert.ErrorIs(t, err, entity.ErrInsufficientStock)
}

func TestStore_WithinTx_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := seeded(t)

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Products.DecrementStock(ctx, "cookie", 1); err != nil {
			return err
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	p, err := s.Repositories().Products.FindByID(context.Background(), "cookie")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
}

func TestCartRepository_SaveItemKeepsOneLinePerProduct(t *testing.T) {
	ctx := context.Background()
	repos := seeded(t).Repositories()

	cart, err := repos.Carts.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, repos.Carts.SaveItem(ctx, cart.ID, entity.CartItem{ID: "a", ProductID: "cookie", Quantity: 1, UnitPrice: decimal.RequireFromString("2.50")}))
	require.NoError(t, repos.Carts.SaveItem(ctx, cart.ID, entity.CartItem{ID: "b", ProductID: "cookie", Quantity: 4, UnitPrice: decimal.RequireFromString("9.00")}))

	loaded, err := repos.Carts.FindByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "a", loaded.Items[0].ID)
	assert.Equal(t, 4, loaded.Items[0].Quantity)
	assert.Equal(t, "Cookie", loaded.Items[0].Title)
	assert.Equal(t, 5, *loaded.Items[0].Stock)
	assert.True(t, decimal.NewFromInt(10).Equal(loaded.Total))
}

func TestCartRepository_LockAndRemoveItems(t *testing.T) {
	ctx := context.Background()
	repos := seeded(t).Repositories()

	assert.ErrorIs(t, repos.Carts.Lock(ctx, "user-1"), entity.ErrCartNotFound)

	cart, err := repos.Carts.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, repos.Carts.Lock(ctx, "user-1"))
	require.NoError(t, repos.Carts.SaveItem(ctx, cart.ID, entity.CartItem{ID: "a", ProductID: "cookie", Quantity: 2}))

	require.NoError(t, repos.Carts.RemoveItems(ctx, cart.ID, []string{"a"}))
	assert.ErrorIs(t, repos.Carts.RemoveItems(ctx, cart.ID, []string{"a"}), entity.ErrCartChanged)

	loaded, err := repos.Carts.FindByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestGuestCartStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &guestCartStore{carts: map[string]guestEntry{}, now: func() time.Time { return now }}

	cart := entity.NewCart("guest-1", "")
	require.NoError(t, store.Save(ctx, cart, time.Hour))

	_, err := store.Load(ctx, "guest-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = store.Load(ctx, "guest-1")
	assert.ErrorIs(t, err, entity.ErrCartNotFound)
}
