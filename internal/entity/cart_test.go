package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id, price string, stock int) ProductSnapshot {
	return ProductSnapshot{ID: id, Title: id, Price: decimal.RequireFromString(price), Stock: &stock}
}

func TestCart_AddItem(t *testing.T) {
	cart := NewCart("", "")

	item, err := cart.AddItem("cookie", 2, snapshot("cookie", "2.50", 10))
	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID, "cart id is issued on first add")
	assert.NotEmpty(t, item.ID)

	again, err := cart.AddItem("cookie", 3, snapshot("cookie", "9.99", 10))
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, 5, again.Quantity)

	require.Len(t, cart.Items, 1)
	assert.True(t, decimal.RequireFromString("2.50").Equal(cart.Items[0].UnitPrice), "the first snapshot price is kept")
	assert.True(t, decimal.RequireFromString("12.50").Equal(cart.Total))
}

func TestCart_AddItem_StockExceeded(t *testing.T) {
	cart := NewCart("c1", "u1")
	_, err := cart.AddItem("x", 5, snapshot("x", "1.00", 10))
	require.NoError(t, err)

	_, err = cart.AddItem("x", 10, snapshot("x", "1.00", 10))
	require.ErrorIs(t, err, ErrStockExceeded)

	var stockErr *StockExceededError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 15, stockErr.Requested)
	assert.Equal(t, "only 10 items available in stock", err.Error())

	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(5).Equal(cart.Total))
}

func TestCart_AddItem_NewLineOverStock(t *testing.T) {
	cart := NewCart("", "")
	_, err := cart.AddItem("cake", 2, snapshot("cake", "30", 1))
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.True(t, cart.IsEmpty())
	assert.Empty(t, cart.ID)
}

func TestCart_AddItem_UnknownStock(t *testing.T) {
	cart := NewCart("", "")
	_, err := cart.AddItem("bread", 500, ProductSnapshot{ID: "bread", Price: decimal.NewFromInt(8)})
	require.NoError(t, err)
	assert.Nil(t, cart.Items[0].Stock)
}

func TestCart_AddItem_InvalidQuantity(t *testing.T) {
	cart := NewCart("", "")
	for _, q := range []int{0, -1} {
		_, err := cart.AddItem("cookie", q, snapshot("cookie", "1", 10))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.True(t, cart.IsEmpty())
}

func TestCart_UpdateQuantity(t *testing.T) {
	cart := NewCart("", "")
	item, err := cart.AddItem("cookie", 2, snapshot("cookie", "2.00", 4))
	require.NoError(t, err)

	require.NoError(t, cart.UpdateQuantity(item.ID, 4))
	assert.True(t, decimal.NewFromInt(8).Equal(cart.Total))

	err = cart.UpdateQuantity(item.ID, 5)
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	cart.SetStock("cookie", 9)
	require.NoError(t, cart.UpdateQuantity(item.ID, 9))

	assert.ErrorIs(t, cart.UpdateQuantity("unknown", 1), ErrCartItemNotFound)

	require.NoError(t, cart.UpdateQuantity(item.ID, 0))
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total.IsZero())

	require.NoError(t, cart.UpdateQuantity(item.ID, -3), "removing an absent item is not an error")
}

func TestCart_RemoveItem_Idempotent(t *testing.T) {
	cart := NewCart("", "")
	a, err := cart.AddItem("a", 1, snapshot("a", "1.00", 5))
	require.NoError(t, err)
	_, err = cart.AddItem("b", 2, snapshot("b", "3.00", 5))
	require.NoError(t, err)

	cart.RemoveItem(a.ID)
	snapshotAfterFirst := *cart
	snapshotAfterFirst.Items = append([]CartItem(nil), cart.Items...)

	cart.RemoveItem(a.ID)
	assert.Equal(t, snapshotAfterFirst.Items, cart.Items)
	assert.True(t, decimal.NewFromInt(6).Equal(cart.Total))
}

func TestCart_Clear(t *testing.T) {
	cart := NewCart("", "")
	_, err := cart.AddItem("a", 1, snapshot("a", "1.00", 5))
	require.NoError(t, err)
	require.NotEmpty(t, cart.ID)

	cart.Clear()
	assert.Empty(t, cart.ID)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total.IsZero())
}
