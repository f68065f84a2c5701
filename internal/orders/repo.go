package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Address").
		Preload("Contact")
}

func (r *repository) FindByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).Where("payment_session_id = ?", sessionID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts the order row only; children are written separately.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "Address", "Contact").Create(order).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) CreateAddress(ctx context.Context, address *models.OrderAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) CreateContact(ctx context.Context, contact *models.OrderContactInfo) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Preload("Contact")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query, err := pagination.Apply(query, "", params)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order only if it is still in from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

type summaryRow struct {
	Orders  int64
	Revenue decimal.NullDecimal
}

// Summary counts non-cancelled orders since the cutoff and sums their totals.
func (r *repository) Summary(ctx context.Context, since time.Time) (int64, decimal.Decimal, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS orders, SUM(total_price) AS revenue").
		Where("created_at >= ? AND status <> ?", since, enums.OrderStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	revenue := decimal.Zero
	if row.Revenue.Valid {
		revenue = row.Revenue.Decimal.Round(2)
	}
	return row.Orders, revenue, nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Contact").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
