package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/manalamro/chippy/internal/entity"
)

type productRepository struct{ v view }

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.v.do(func(st *state) error {
		for _, p := range st.products {
			products = append(products, p)
		}
		return nil
	})
	slices.SortFunc(products, func(a, b entity.Product) int { return cmp.Compare(a.Title, b.Title) })
	return products, err
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var product *entity.Product
	err := r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return entity.ErrProductNotFound
		}
		product = &p
		return nil
	})
	return product, err
}

func (r *productRepository) LockForUpdate(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	products := make(map[string]entity.Product, len(ids))
	err := r.v.do(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				products[id] = p
			}
		}
		return nil
	})
	return products, err
}

func (r *productRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	return r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.Stock < quantity {
			return fmt.Errorf("%w: product %s", entity.ErrInsufficientStock, id)
		}
		p.Stock -= quantity
		st.products[id] = p
		return nil
	})
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	return r.v.do(func(st *state) error {
		if len(st.products) > 0 {
			return nil
		}
		for _, p := range products {
			st.products[p.ID] = p
		}
		return nil
	})
}

type cartRepository struct{ v view }

func (r *cartRepository) FindByUser(ctx context.Context, userID string) (*entity.Cart, error) {
	var cart *entity.Cart
	err := r.v.do(func(st *state) error {
		id, ok := st.cartByUser[userID]
		if !ok {
			return entity.ErrCartNotFound
		}
		row := st.carts[id]
		cart = entity.NewCart(row.id, row.userID)
		for _, item := range row.items {
			p, ok := st.products[item.ProductID]
			if !ok {
				continue
			}
			stock := p.Stock
			item.Title = p.Title
			item.Stock = &stock
			cart.Items = append(cart.Items, item)
		}
		cart.Recalculate()
		return nil
	})
	return cart, err
}

func (r *cartRepository) Lock(ctx context.Context, userID string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.cartByUser[userID]; !ok {
			return entity.ErrCartNotFound
		}
		return nil
	})
}

func (r *cartRepository) Create(ctx context.Context, userID string) (*entity.Cart, error) {
	var cart *entity.Cart
	err := r.v.do(func(st *state) error {
		id, ok := st.cartByUser[userID]
		if !ok {
			id = uuid.NewString()
			st.carts[id] = &cartRow{id: id, userID: userID}
			st.cartByUser[userID] = id
		}
		cart = entity.NewCart(id, userID)
		return nil
	})
	return cart, err
}

func (r *cartRepository) SaveItem(ctx context.Context, cartID string, item entity.CartItem) error {
	return r.v.do(func(st *state) error {
		row, ok := st.carts[cartID]
		if !ok {
			return entity.ErrCartNotFound
		}
		if _, ok := st.products[item.ProductID]; !ok {
			return entity.ErrProductNotFound
		}
		item.Stock = nil
		for i := range row.items {
			if row.items[i].ProductID == item.ProductID {
				row.items[i].Quantity = item.Quantity
				return nil
			}
		}
		row.items = append(row.items, item)
		return nil
	})
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID string) error {
	return r.v.do(func(st *state) error {
		if row, ok := st.carts[cartID]; ok {
			row.items = slices.DeleteFunc(row.items, func(item entity.CartItem) bool { return item.ID == itemID })
		}
		return nil
	})
}

func (r *cartRepository) RemoveItems(ctx context.Context, cartID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.v.do(func(st *state) error {
		row, ok := st.carts[cartID]
		if !ok {
			return fmt.Errorf("%w: cart %s is gone", entity.ErrCartChanged, cartID)
		}
		kept := row.items[:0:0]
		for _, item := range row.items {
			if !slices.Contains(itemIDs, item.ID) {
				kept = append(kept, item)
			}
		}
		if removed := len(row.items) - len(kept); removed != len(itemIDs) {
			return fmt.Errorf("%w: removed %d of %d lines", entity.ErrCartChanged, removed, len(itemIDs))
		}
		row.items = kept
		return nil
	})
}

type addressRepository struct{ v view }

func (r *addressRepository) Find(ctx context.Context, id, userID string) (*entity.Address, error) {
	var address *entity.Address
	err := r.v.do(func(st *state) error {
		a, ok := st.addresses[id]
		if !ok || a.UserID != userID {
			return entity.ErrAddressNotFound
		}
		address = &a
		return nil
	})
	return address, err
}

func (r *addressRepository) FindByUser(ctx context.Context, userID string) ([]entity.Address, error) {
	addresses := []entity.Address{}
	err := r.v.do(func(st *state) error {
		for _, a := range st.addresses {
			if a.UserID == userID {
				addresses = append(addresses, a)
			}
		}
		return nil
	})
	slices.SortFunc(addresses, func(a, b entity.Address) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return addresses, err
}

func (r *addressRepository) Create(ctx context.Context, a *entity.Address) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return r.v.do(func(st *state) error {
		st.addresses[a.ID] = *a
		return nil
	})
}

type orderRepository struct{ v view }

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return fmt.Errorf("failed to insert order: duplicate id %s", o.ID)
		}
		if _, ok := st.addresses[o.AddressID]; !ok {
			return fmt.Errorf("failed to insert order: %w", entity.ErrAddressNotFound)
		}
		row := *o
		row.Address = nil
		row.Items = nil
		st.orders[o.ID] = row
		return nil
	})
}

func (r *orderRepository) AddItem(ctx context.Context, item entity.OrderItem) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.orders[item.OrderID]; !ok {
			return fmt.Errorf("failed to insert order item: %w", entity.ErrOrderNotFound)
		}
		st.orderItems[item.OrderID] = append(st.orderItems[item.OrderID], item)
		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var order *entity.Order
	err := r.v.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return entity.ErrOrderNotFound
		}
		o = st.hydrate(o)
		order = &o
		return nil
	})
	return order, err
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return r.find(func(o entity.Order) bool { return o.UserID == userID }, 0)
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	return r.find(func(entity.Order) bool { return true }, limit)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, paymentStatus entity.PaymentStatus) error {
	return r.v.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return entity.ErrOrderNotFound
		}
		o.Status = status
		o.PaymentStatus = paymentStatus
		st.orders[id] = o
		return nil
	})
}

func (r *orderRepository) find(match func(entity.Order) bool, limit int) ([]entity.Order, error) {
	orders := []entity.Order{}
	err := r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if match(o) {
				orders = append(orders, st.hydrate(o))
			}
		}
		return nil
	})
	slices.SortFunc(orders, func(a, b entity.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, err
}

func (st *state) hydrate(o entity.Order) entity.Order {
	if a, ok := st.addresses[o.AddressID]; ok {
		o.Address = &a
	}
	o.Items = slices.Clone(st.orderItems[o.ID])
	if o.Items == nil {
		o.Items = []entity.OrderItem{}
	}
	return o
}

type eventStore struct{ v view }

func (s *eventStore) SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) error {
	if len(events) == 0 {
		return nil
	}
	return s.v.do(func(st *state) error {
		records := st.events[streamID]
		currentVersion := len(records)
		if expectedVersion >= 0 && currentVersion != expectedVersion {
			return fmt.Errorf("%w: expected version %d, got %d", entity.ErrVersionConflict, expectedVersion, currentVersion)
		}

		now := time.Now().UTC()
		for _, event := range events {
			payload, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
			}
			currentVersion++
			records = append(records, entity.EventStoreRecord{
				ID:         uuid.NewString(),
				StreamID:   streamID,
				StreamType: streamType,
				Version:    currentVersion,
				EventType:  event.EventType(),
				Payload:    payload,
				CreatedAt:  now,
			})
		}
		st.events[streamID] = records
		return nil
	})
}

func (s *eventStore) LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error) {
	var records []entity.EventStoreRecord
	err := s.v.do(func(st *state) error {
		records = slices.Clone(st.events[streamID])
		return nil
	})
	if records == nil {
		records = []entity.EventStoreRecord{}
	}
	return records, err
}
