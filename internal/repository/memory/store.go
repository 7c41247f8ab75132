// Package memory keeps the whole store in process. Transactions are
// serialized by one mutex and work on a copy of the state that replaces the
// committed state only on commit.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

type cartRow struct {
	id     string
	userID string
	items  []entity.CartItem
}

type state struct {
	products   map[string]entity.Product
	carts      map[string]*cartRow
	cartByUser map[string]string
	addresses  map[string]entity.Address
	orders     map[string]entity.Order
	orderItems map[string][]entity.OrderItem
	events     map[string][]entity.EventStoreRecord
}

func newState() *state {
	return &state{
		products:   map[string]entity.Product{},
		carts:      map[string]*cartRow{},
		cartByUser: map[string]string{},
		addresses:  map[string]entity.Address{},
		orders:     map[string]entity.Order{},
		orderItems: map[string][]entity.OrderItem{},
		events:     map[string][]entity.EventStoreRecord{},
	}
}

func (s *state) clone() *state {
	c := &state{
		products:   maps.Clone(s.products),
		carts:      make(map[string]*cartRow, len(s.carts)),
		cartByUser: maps.Clone(s.cartByUser),
		addresses:  maps.Clone(s.addresses),
		orders:     maps.Clone(s.orders),
		orderItems: make(map[string][]entity.OrderItem, len(s.orderItems)),
		events:     make(map[string][]entity.EventStoreRecord, len(s.events)),
	}
	for id, row := range s.carts {
		c.carts[id] = &cartRow{id: row.id, userID: row.userID, items: slices.Clone(row.items)}
	}
	for id, items := range s.orderItems {
		c.orderItems[id] = slices.Clone(items)
	}
	for id, records := range s.events {
		c.events[id] = slices.Clone(records)
	}
	return c
}

// Store is an in-memory UnitOfWork.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Repositories() repository.Repositories {
	return s.repositories(view{store: s})
}

// WithinTx holds the store lock for the whole of fn, which gives every
// transaction serializable isolation.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(ctx, s.repositories(view{store: s, tx: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = work
	return nil
}

func (s *Store) repositories(v view) repository.Repositories {
	return repository.Repositories{
		Products:  &productRepository{v},
		Carts:     &cartRepository{v},
		Addresses: &addressRepository{v},
		Orders:    &orderRepository{v},
		Events:    &eventStore{v},
	}
}

// view binds repositories either to a transaction's working copy or to the
// committed state under the store lock.
type view struct {
	store *Store
	tx    *state
}

func (v view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}
