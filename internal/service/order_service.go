package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/messaging"
	"github.com/manalamro/chippy/internal/payment"
	"github.com/manalamro/chippy/internal/repository"
)

const (
	orderStream    = "order"
	publishTimeout = 5 * time.Second
)

// OrderService orchestrates checkout and the order lifecycle.
type OrderService struct {
	store     repository.UnitOfWork
	gateway   payment.Gateway
	publisher messaging.Publisher
	now       func() time.Time
}

func NewOrderService(
	store repository.UnitOfWork,
	gateway payment.Gateway,
	publisher messaging.Publisher,
) *OrderService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &OrderService{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		now:       time.Now,
	}
}

// PlaceOrder turns the caller's cart into an order in one transaction: the
// order, its items, the stock decrements and the emptied cart commit together
// or not at all.
func (s *OrderService) PlaceOrder(ctx context.Context, cmd *entity.PlaceOrder) (*entity.PlaceOrderResult, error) {
	slog.Info("Service: Placing order", "user_id", cmd.UserID, "address_id", cmd.AddressID)

	var (
		state  = entity.PlacementStarted
		placed entity.OrderPlaced
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// 1. Lock and load cart. A second checkout of the same cart waits
		// here and then finds it empty.
		if err := repos.Carts.Lock(ctx, cmd.UserID); err != nil {
			if errors.Is(err, entity.ErrCartNotFound) {
				return entity.ErrEmptyCart
			}
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		cart, err := repos.Carts.FindByUser(ctx, cmd.UserID)
		if errors.Is(err, entity.ErrCartNotFound) {
			return entity.ErrEmptyCart
		}
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if cart.IsEmpty() {
			return entity.ErrEmptyCart
		}
		state = entity.PlacementCartValidated

		// 2. Validate address
		address, err := repos.Addresses.Find(ctx, cmd.AddressID, cmd.UserID)
		if err != nil {
			return err
		}
		state = entity.PlacementAddressValidated

		// 3. Authorize payment
		auth, err := s.gateway.Authorize(ctx, cart.Total, cmd.Payment)
		if err != nil {
			return fmt.Errorf("failed to authorize payment: %w", err)
		}
		if !auth.Success {
			return entity.ErrPaymentDeclined
		}
		state = entity.PlacementPaymentAuthorized

		// 4. Check stock for every line before writing anything
		products, err := s.checkStock(ctx, repos, cart)
		if err != nil {
			return err
		}
		state = entity.PlacementStockChecked

		// 5. Create order
		order := &entity.Order{
			ID:            uuid.NewString(),
			UserID:        cmd.UserID,
			AddressID:     address.ID,
			Total:         cart.Total,
			Status:        entity.OrderStatusPending,
			PaymentStatus: entity.PaymentStatusPaid,
			TransactionID: auth.TransactionID,
			CreatedAt:     s.now().UTC(),
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		state = entity.PlacementOrderCreated

		// 6. Insert items and decrement stock
		for _, line := range cart.Items {
			item := entity.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Title:     products[line.ProductID].Title,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			}
			if err := repos.Orders.AddItem(ctx, item); err != nil {
				return err
			}
			state = entity.PlacementItemsInserted

			if err := repos.Products.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, entity.ErrInsufficientStock) {
					p := products[line.ProductID]
					return &entity.InsufficientStockError{ProductID: p.ID, Title: p.Title, Available: p.Stock, Requested: line.Quantity}
				}
				return err
			}
			state = entity.PlacementStockDecremented
			order.Items = append(order.Items, item)
		}

		// 7. Clear the lines that were ordered
		itemIDs := make([]string, len(cart.Items))
		for i, line := range cart.Items {
			itemIDs[i] = line.ID
		}
		if err := repos.Carts.RemoveItems(ctx, cart.ID, itemIDs); err != nil {
			return err
		}
		state = entity.PlacementCartCleared

		placed = entity.OrderPlaced{
			OrderID:       order.ID,
			UserID:        order.UserID,
			Items:         order.Items,
			Total:         order.Total,
			TransactionID: order.TransactionID,
			PlacedAt:      order.CreatedAt,
		}
		if err := repos.Events.SaveEvents(ctx, order.ID, orderStream, 0, []entity.Event{placed}); err != nil {
			return fmt.Errorf("failed to save OrderPlaced event: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.Warn("Service: Order placement rolled back",
			"user_id", cmd.UserID,
			"state", entity.PlacementRolledBack.String(),
			"failed_state", state.String(),
			"wrote", state.Writing(),
			"err", err,
		)
		return nil, err
	}
	state = entity.PlacementCommitted

	slog.Info("Service: Order placed", "state", state.String(), "order_id", placed.OrderID, "user_id", placed.UserID, "total", placed.Total.StringFixed(2), "transaction_id", placed.TransactionID)
	s.publish(ctx, messaging.TopicOrderPlaced, placed.OrderID, placed)

	return &entity.PlaceOrderResult{OrderID: placed.OrderID, TransactionID: placed.TransactionID}, nil
}

// checkStock locks every product of the cart and fails on the first line that
// asks for more than is left.
func (s *OrderService) checkStock(ctx context.Context, repos repository.Repositories, cart *entity.Cart) (map[string]entity.Product, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	slices.Sort(ids)

	products, err := repos.Products.LockForUpdate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", entity.ErrProductNotFound, item.Title)
		}
		if p.Stock < item.Quantity {
			return nil, &entity.InsufficientStockError{ProductID: p.ID, Title: p.Title, Available: p.Stock, Requested: item.Quantity}
		}
	}
	return products, nil
}

// ListMyOrders returns the user's orders newest first, each with its address
// and items.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.store.Repositories().Orders.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetRecentOrders returns the latest orders across all users.
func (s *OrderService) GetRecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	orders, err := s.store.Repositories().Orders.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order's status and payment status independently.
// An empty value keeps the current one. Stock is never touched, so a
// cancelled order keeps its units consumed.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, status, paymentStatus string) (*entity.Order, error) {
	if status == "" && paymentStatus == "" {
		return nil, entity.ErrNoStatusChange
	}

	var newStatus entity.OrderStatus
	if status != "" {
		v, err := entity.ParseOrderStatus(status)
		if err != nil {
			return nil, err
		}
		newStatus = v
	}
	var newPaymentStatus entity.PaymentStatus
	if paymentStatus != "" {
		v, err := entity.ParsePaymentStatus(paymentStatus)
		if err != nil {
			return nil, err
		}
		newPaymentStatus = v
	}

	slog.Info("Service: Updating order status", "order_id", orderID, "status", newStatus, "payment_status", newPaymentStatus)

	var (
		updated *entity.Order
		changed entity.OrderStatusChanged
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		order, err := repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if newStatus != "" {
			order.Status = newStatus
		}
		if newPaymentStatus != "" {
			order.PaymentStatus = newPaymentStatus
		}

		if err := repos.Orders.UpdateStatus(ctx, order.ID, order.Status, order.PaymentStatus); err != nil {
			return err
		}

		changed = entity.OrderStatusChanged{
			OrderID:       order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			ChangedAt:     s.now().UTC(),
		}
		if err := repos.Events.SaveEvents(ctx, order.ID, orderStream, -1, []entity.Event{changed}); err != nil {
			return fmt.Errorf("failed to save OrderStatusChanged event: %w", err)
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.TopicOrderStatusChanged, changed.OrderID, changed)
	return updated, nil
}

// OrderHistory returns the events recorded for an order, oldest first.
func (s *OrderService) OrderHistory(ctx context.Context, orderID string) ([]entity.EventStoreRecord, error) {
	repos := s.store.Repositories()
	if _, err := repos.Orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	records, err := repos.Events.LoadEvents(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return records, nil
}

// publish runs after commit. The order already exists, so a broker failure is
// logged rather than returned.
func (s *OrderService) publish(ctx context.Context, topic, key string, event entity.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishEvent(ctx, topic, key, event); err != nil {
		slog.Error("Failed to publish event", "topic", topic, "event_type", event.EventType(), "key", key, "err", err)
	}
}
