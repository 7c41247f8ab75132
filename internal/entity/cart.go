package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem represents an item currently in a cart. UnitPrice is captured when
// the product first enters the cart and does not follow later price changes.
type CartItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     *int            `json:"stock,omitempty"`
}

// Subtotal returns quantity times the snapshot price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is what a buyer intends to purchase. An empty UserID marks a guest
// cart. Items are unique on ProductID.
type Cart struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id,omitempty"`
	Items  []CartItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// NewCart creates an empty cart.
func NewCart(id, userID string) *Cart {
	return &Cart{ID: id, UserID: userID, Items: []CartItem{}}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Item returns a copy of the item with the given id.
func (c *Cart) Item(itemID string) (CartItem, bool) {
	if i := c.indexOf(itemID); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// AddItem puts quantity units of a product into the cart, summing with an
// existing line. A result above the known stock is rejected and leaves the
// cart untouched.
func (c *Cart) AddItem(productID string, quantity int, snap ProductSnapshot) (*CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if i := c.indexOfProduct(productID); i >= 0 {
		item := c.Items[i]
		stock := item.Stock
		if snap.Stock != nil {
			stock = snap.Stock
		}
		newQuantity := item.Quantity + quantity
		if stock != nil && newQuantity > *stock {
			return nil, &StockExceededError{ProductID: productID, Available: *stock, Requested: newQuantity}
		}

		item.Quantity = newQuantity
		item.Stock = copyInt(stock)
		c.Items[i] = item
		c.Recalculate()
		return &item, nil
	}

	if snap.Stock != nil && quantity > *snap.Stock {
		return nil, &StockExceededError{ProductID: productID, Available: *snap.Stock, Requested: quantity}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	item := CartItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		Title:     snap.Title,
		Quantity:  quantity,
		UnitPrice: snap.Price,
		Stock:     copyInt(snap.Stock),
	}
	c.Items = append(c.Items, item)
	c.Recalculate()
	return &item, nil
}

// UpdateQuantity sets an item's quantity. Zero or less removes the item.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if quantity <= 0 {
		c.RemoveItem(itemID)
		return nil
	}

	i := c.indexOf(itemID)
	if i < 0 {
		return ErrCartItemNotFound
	}
	item := &c.Items[i]
	if item.Stock != nil && quantity > *item.Stock {
		return &StockExceededError{ProductID: item.ProductID, Available: *item.Stock, Requested: quantity}
	}

	item.Quantity = quantity
	c.Recalculate()
	return nil
}

// SetStock records the latest known stock for a product's line.
func (c *Cart) SetStock(productID string, stock int) {
	if i := c.indexOfProduct(productID); i >= 0 {
		c.Items[i].Stock = &stock
	}
}

// RemoveItem drops an item. Removing a missing item is a no-op.
func (c *Cart) RemoveItem(itemID string) {
	if i := c.indexOf(itemID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		c.Recalculate()
	}
}

// Clear empties the cart and forgets its identifier.
func (c *Cart) Clear() {
	c.ID = ""
	c.Items = []CartItem{}
	c.Recalculate()
}

// Recalculate refreshes Total from the items. Carts loaded from storage call it
// once after assembling their lines.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	c.Total = total
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) indexOfProduct(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
