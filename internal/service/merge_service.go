package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manalamro/chippy/internal/entity"
)

// MergeFailure is a guest line that could not be moved into the user's cart.
type MergeFailure struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// MergeResult is the user's cart after a merge plus the guest lines it dropped.
type MergeResult struct {
	Cart   *entity.Cart   `json:"cart"`
	Failed []MergeFailure `json:"failed"`
}

// MergeService moves a guest cart into a signed-in user's cart when the user
// authenticates.
type MergeService struct {
	carts  *CartService
	guests *GuestCartService
}

func NewMergeService(carts *CartService, guests *GuestCartService) *MergeService {
	return &MergeService{carts: carts, guests: guests}
}

// MergeGuestCart merges the stored guest cart and then discards it, whether or
// not every line made it across.
func (s *MergeService) MergeGuestCart(ctx context.Context, userID, guestCartID string) (*MergeResult, error) {
	guest, err := s.guests.Get(ctx, guestCartID)
	if err != nil {
		return nil, err
	}

	result, err := s.Merge(ctx, userID, guest)
	if err != nil {
		return nil, err
	}

	if err := s.guests.Clear(ctx, guestCartID); err != nil {
		slog.Warn("Service: Failed to discard merged guest cart", "guest_cart_id", guestCartID, "err", err)
	}
	return result, nil
}

// Merge adds every line of guest to the user's cart one by one. A line that
// fails is reported and skipped; the rest continue. The returned cart is
// re-read from the store and guest is cleared.
func (s *MergeService) Merge(ctx context.Context, userID string, guest *entity.Cart) (*MergeResult, error) {
	result := &MergeResult{Failed: []MergeFailure{}}

	if guest != nil && !guest.IsEmpty() {
		slog.Info("Service: Merging guest cart", "user_id", userID, "guest_cart_id", guest.ID, "items", len(guest.Items))

		for _, item := range guest.Items {
			if _, err := s.carts.AddToCart(ctx, userID, item.ProductID, item.Quantity); err != nil {
				slog.Warn("Service: Skipping guest cart item",
					"user_id", userID,
					"product_id", item.ProductID,
					"quantity", item.Quantity,
					"err", err,
				)
				result.Failed = append(result.Failed, MergeFailure{
					ProductID: item.ProductID,
					Title:     item.Title,
					Quantity:  item.Quantity,
					Reason:    mergeFailureReason(err),
				})
			}
		}
	}
	if guest != nil {
		guest.Clear()
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Cart = cart
	return result, nil
}

// mergeFailureReason keeps internal errors out of what the buyer sees.
func mergeFailureReason(err error) string {
	switch {
	case errors.Is(err, entity.ErrStockExceeded),
		errors.Is(err, entity.ErrProductNotFound),
		errors.Is(err, entity.ErrInvalidQuantity):
		return err.Error()
	default:
		return "item could not be added"
	}
}
