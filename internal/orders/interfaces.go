package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qyve/storefront/internal/cart"
	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/pagination"
)

// Repository defines order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	CreateAddress(ctx context.Context, address *models.OrderAddress) error
	CreateContact(ctx context.Context, contact *models.OrderContactInfo) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error)
	Summary(ctx context.Context, since time.Time) (int64, decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}

// ListFilter narrows order listings. Nil fields are ignored.
type ListFilter struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartResolver interface {
	ResolveForBuyer(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*cart.Resolved, error)
	ResolveGuest(metadata map[string]string) (*cart.Resolved, error)
}
