package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

const addressColumns = "id, user_id, full_name, phone, street, city, notes, is_default"

type addressRepository struct {
	db DBTX
}

// NewAddressRepository creates a new AddressRepository backed by Postgres.
func NewAddressRepository(db DBTX) repository.AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Find(ctx context.Context, id, userID string) (*entity.Address, error) {
	var a entity.Address
	err := r.db.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id = $1 AND user_id = $2",
		id, userID,
	).Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Street, &a.City, &a.Notes, &a.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &a, nil
}

func (r *addressRepository) FindByUser(ctx context.Context, userID string) ([]entity.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []entity.Address{}
	for rows.Next() {
		var a entity.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Street, &a.City, &a.Notes, &a.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *addressRepository) Create(ctx context.Context, a *entity.Address) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO addresses ("+addressColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		a.ID, a.UserID, a.FullName, a.Phone, a.Street, a.City, a.Notes, a.IsDefault,
	)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}
	return nil
}
