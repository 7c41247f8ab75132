package service

import (
	"context"
	"testing"
	"time"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuestCarts(t *testing.T) *GuestCartService {
	t.Helper()
	store := seedStore(t,
		product(cookieID, "Cookie", "2.50", 10),
		product(cakeID, "Cake", "30.00", 2),
	)
	return NewGuestCartService(store, memory.NewGuestCartStore(), time.Hour)
}

func TestGuestCartService_AddItemIssuesID(t *testing.T) {
	ctx := context.Background()
	svc := newGuestCarts(t)

	cart, err := svc.AddItem(ctx, "", cookieID, 2)
	require.NoError(t, err)
	require.NotEmpty(t, cart.ID)
	assert.Empty(t, cart.UserID)

	cart, err = svc.AddItem(ctx, cart.ID, cookieID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	loaded, err := svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, loaded.ID)
	assert.True(t, price("12.50").Equal(loaded.Total))
}

func TestGuestCartService_StockExceeded(t *testing.T) {
	ctx := context.Background()
	svc := newGuestCarts(t)

	cart, err := svc.AddItem(ctx, "", cakeID, 2)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cart.ID, cakeID, 1)
	assert.ErrorIs(t, err, entity.ErrStockExceeded)

	loaded, err := svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, cart.ID, loaded.Items[0].ID, 3)
	assert.ErrorIs(t, err, entity.ErrStockExceeded)
}

func TestGuestCartService_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	svc := newGuestCarts(t)

	cart, err := svc.AddItem(ctx, "", cookieID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItem(ctx, cart.ID, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, cart.ID, "unknown", 1)
	assert.ErrorIs(t, err, entity.ErrCartItemNotFound)

	cart, err = svc.RemoveItem(ctx, cart.ID, itemID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	cart, err = svc.RemoveItem(ctx, cart.ID, itemID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	require.NoError(t, svc.Clear(ctx, cart.ID))
	cart, err = svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.ID)
}

func TestGuestCartService_UnknownProduct(t *testing.T) {
	_, err := newGuestCarts(t).AddItem(context.Background(), "", "missing", 1)
	assert.ErrorIs(t, err, entity.ErrProductNotFound)
}
