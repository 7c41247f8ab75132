package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/manalamro/chippy/internal/repository"
)

// Store is the Postgres unit of work.
type Store struct {
	db *sql.DB
}

// NewStore creates a new UnitOfWork backed by Postgres.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

// WithinTx runs fn in a transaction. The deferred Rollback is a no-op after a
// successful Commit and also runs while a panic unwinds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func newRepositories(db DBTX) repository.Repositories {
	return repository.Repositories{
		Products:  NewProductRepository(db),
		Carts:     NewCartRepository(db),
		Addresses: NewAddressRepository(db),
		Orders:    NewOrderRepository(db),
		Events:    NewEventStore(db),
	}
}
