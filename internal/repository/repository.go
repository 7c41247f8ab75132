package repository

import (
	"context"
	"time"

	"github.com/manalamro/chippy/internal/entity"
)

// ProductRepository handles persistence for Products.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// LockForUpdate reads the given products and holds them until the
	// surrounding transaction ends. Missing ids are absent from the result.
	LockForUpdate(ctx context.Context, ids []string) (map[string]entity.Product, error)
	// DecrementStock subtracts quantity only if enough stock remains;
	// otherwise it returns entity.ErrInsufficientStock.
	DecrementStock(ctx context.Context, id string, quantity int) error
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// CartRepository handles persistence for authenticated users' carts.
type CartRepository interface {
	// FindByUser returns entity.ErrCartNotFound when the user has no cart yet.
	FindByUser(ctx context.Context, userID string) (*entity.Cart, error)
	// Lock holds the user's cart row until the surrounding transaction ends.
	// It returns entity.ErrCartNotFound when the user has no cart yet.
	Lock(ctx context.Context, userID string) error
	Create(ctx context.Context, userID string) (*entity.Cart, error)
	// SaveItem inserts the line or updates its quantity; one row per product.
	SaveItem(ctx context.Context, cartID string, item entity.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID string) error
	// RemoveItems deletes exactly the given lines and returns
	// entity.ErrCartChanged if any of them is already gone.
	RemoveItems(ctx context.Context, cartID string, itemIDs []string) error
}

// AddressRepository handles persistence for shipping addresses.
type AddressRepository interface {
	// Find returns entity.ErrAddressNotFound unless the address belongs to userID.
	Find(ctx context.Context, id, userID string) (*entity.Address, error)
	FindByUser(ctx context.Context, userID string) ([]entity.Address, error)
	Create(ctx context.Context, address *entity.Address) error
}

// OrderRepository handles persistence for Orders.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	AddItem(ctx context.Context, item entity.OrderItem) error
	FindByID(ctx context.Context, id string) (*entity.Order, error)
	// FindByUser returns the user's orders newest first, with address and items.
	FindByUser(ctx context.Context, userID string) ([]entity.Order, error)
	FindRecent(ctx context.Context, limit int) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, paymentStatus entity.PaymentStatus) error
}

// EventStore handles appending and loading events for an aggregate stream.
type EventStore interface {
	SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) error
	LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error)
}

// GuestCartStore keeps carts of unauthenticated sessions.
type GuestCartStore interface {
	// Load returns entity.ErrCartNotFound for unknown or expired ids.
	Load(ctx context.Context, cartID string) (*entity.Cart, error)
	Save(ctx context.Context, cart *entity.Cart, ttl time.Duration) error
	Delete(ctx context.Context, cartID string) error
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Products  ProductRepository
	Carts     CartRepository
	Addresses AddressRepository
	Orders    OrderRepository
	Events    EventStore
}

// UnitOfWork runs work against the store, optionally inside one transaction.
type UnitOfWork interface {
	// Repositories returns repositories that auto-commit each call.
	Repositories() Repositories
	// WithinTx commits when fn returns nil and rolls back on any error or
	// panic. Repositories passed to fn must not escape it.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
