package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/qyve/storefront/pkg/errors"
)

// Resolver finds the cart a completed payment should be fulfilled from.
type Resolver struct {
	repo CartRepository
}

func NewResolver(repo CartRepository) (*Resolver, error) {
	if repo == nil {
		return nil, errors.New("cart repository required")
	}
	return &Resolver{repo: repo}, nil
}

// ResolveForBuyer returns the buyer's most recent active cart, read through tx.
func (r *Resolver) ResolveForBuyer(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*Resolved, error) {
	cart, err := r.repo.WithTx(tx).FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart for buyer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart has no items")
	}
	cartID := cart.ID
	return &Resolved{
		CartID: &cartID,
		UserID: &userID,
		Lines:  linesFromItems(cart.Items),
	}, nil
}

// ResolveGuest rebuilds a guest cart from payment session metadata.
func (r *Resolver) ResolveGuest(metadata map[string]string) (*Resolved, error) {
	lines, err := DecodeGuestCart(metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "guest cart unavailable")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guest cart is empty")
	}
	return &Resolved{Lines: lines}, nil
}
