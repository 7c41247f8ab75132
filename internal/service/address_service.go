package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/repository"
)

// AddressService manages users' shipping addresses.
type AddressService struct {
	store repository.UnitOfWork
}

func NewAddressService(store repository.UnitOfWork) *AddressService {
	return &AddressService{store: store}
}

// Create stores a new address for userID.
func (s *AddressService) Create(ctx context.Context, userID string, address entity.Address) (*entity.Address, error) {
	address.ID = ""
	address.UserID = userID
	address.FullName = strings.TrimSpace(address.FullName)
	address.Phone = strings.TrimSpace(address.Phone)
	address.Street = strings.TrimSpace(address.Street)
	address.City = strings.TrimSpace(address.City)
	if address.FullName == "" || address.Phone == "" || address.Street == "" || address.City == "" {
		return nil, entity.ErrInvalidAddress
	}

	if err := s.store.Repositories().Addresses.Create(ctx, &address); err != nil {
		return nil, err
	}
	slog.Info("Service: Address created", "user_id", userID, "address_id", address.ID)
	return &address, nil
}

func (s *AddressService) List(ctx context.Context, userID string) ([]entity.Address, error) {
	addresses, err := s.store.Repositories().Addresses.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// Find returns entity.ErrAddressNotFound unless the address belongs to userID.
func (s *AddressService) Find(ctx context.Context, id, userID string) (*entity.Address, error) {
	return s.store.Repositories().Addresses.Find(ctx, id, userID)
}
