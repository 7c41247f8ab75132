package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

const orderSelect = `
	SELECT o.id, o.user_id, o.address_id, o.total, o.status, o.payment_status, o.transaction_id, o.created_at,
	       a.id, a.full_name, a.phone, a.street, a.city, a.notes, a.is_default
	FROM orders o
	JOIN addresses a ON a.id = o.address_id`

type orderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db DBTX) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, address_id, total, status, payment_status, transaction_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, o.AddressID, o.Total, o.Status, o.PaymentStatus, o.TransactionID, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) AddItem(ctx context.Context, item entity.OrderItem) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO order_items (order_id, product_id, title, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)",
		item.OrderID, item.ProductID, item.Title, item.Quantity, item.UnitPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	orders, err := r.query(ctx, orderSelect+" WHERE o.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, entity.ErrOrderNotFound
	}
	return &orders[0], nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return r.query(ctx, orderSelect+" WHERE o.user_id = $1 ORDER BY o.created_at DESC", userID)
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	return r.query(ctx, orderSelect+" ORDER BY o.created_at DESC LIMIT $1", limit)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, paymentStatus entity.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_status = $2 WHERE id = $3",
		status, paymentStatus, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return entity.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) query(ctx context.Context, query string, args ...any) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		var (
			o entity.Order
			a entity.Address
		)
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.AddressID, &o.Total, &o.Status, &o.PaymentStatus, &o.TransactionID, &o.CreatedAt,
			&a.ID, &a.FullName, &a.Phone, &a.Street, &a.City, &a.Notes, &a.IsDefault,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		a.UserID = o.UserID
		o.Address = &a
		o.Items = []entity.OrderItem{}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the lines of all orders in one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT order_id, product_id, title, quantity, unit_price FROM order_items WHERE order_id = ANY($1) ORDER BY id",
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Title, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}
