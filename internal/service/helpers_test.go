package service

import (
	"context"
	"sync"
	"testing"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/payment"
	"github.com/manalamro/chippy/internal/repository"
	"github.com/manalamro/chippy/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	cookieID = "cookie"
	cakeID   = "cake"
	breadID  = "bread"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedStore(t *testing.T, products ...entity.Product) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Repositories().Products.Seed(context.Background(), products))
	return store
}

func product(id, title, p string, stock int) entity.Product {
	return entity.Product{ID: id, Title: title, Slug: id, Price: price(p), Stock: stock}
}

func stockOf(t *testing.T, store repository.UnitOfWork, id string) int {
	t.Helper()
	p, err := store.Repositories().Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func createAddress(t *testing.T, store repository.UnitOfWork, userID string) *entity.Address {
	t.Helper()
	addr, err := NewAddressService(store).Create(context.Background(), userID, entity.Address{
		FullName: "Sam Baker",
		Phone:    "0790000000",
		Street:   "1 Flour Lane",
		City:     "Amman",
	})
	require.NoError(t, err)
	return addr
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

type decliningGateway struct{}

func (decliningGateway) Authorize(ctx context.Context, amount decimal.Decimal, details entity.PaymentDetails) (*payment.Authorization, error) {
	return &payment.Authorization{Success: false}, nil
}

// faultyStore fails DecrementStock for one product, after the order and its
// first items have been written.
type faultyStore struct {
	*memory.Store
	failProductID string
}

func (s *faultyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Products = &faultyProducts{ProductRepository: repos.Products, failID: s.failProductID}
		return fn(ctx, repos)
	})
}

type faultyProducts struct {
	repository.ProductRepository
	failID string
}

func (p *faultyProducts) DecrementStock(ctx context.Context, id string, quantity int) error {
	if id == p.failID {
		return entity.ErrInsufficientStock
	}
	return p.ProductRepository.DecrementStock(ctx, id, quantity)
}

// staleCartStore hands checkout a cart read before another transaction
// changed it.
type staleCartStore struct {
	*memory.Store
	cart *entity.Cart
}

func (s *staleCartStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Carts = &staleCarts{CartRepository: repos.Carts, cart: s.cart}
		return fn(ctx, repos)
	})
}

type staleCarts struct {
	repository.CartRepository
	cart *entity.Cart
}

func (c *staleCarts) FindByUser(ctx context.Context, userID string) (*entity.Cart, error) {
	return c.cart, nil
}
