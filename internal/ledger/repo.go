package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/pagination"
)

var (
	ErrSizeNotFound      = errors.New("product size not found")
	ErrInsufficientStock = errors.New("stock would drop below zero")
)

// Repository manages stock levels and the movement log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ApplyDelta(ctx context.Context, sizeID, productID uuid.UUID, delta int) (int, error)
	TryDecrement(ctx context.Context, sizeID uuid.UUID, quantity int) (int, bool, error)
	InsertMovement(ctx context.Context, movement *models.StockMovement) error
	Stock(ctx context.Context, sizeID uuid.UUID) (int, error)
	ListStock(ctx context.Context, filter StockFilter, params pagination.Params) ([]StockRow, int, error)
	ListHistory(ctx context.Context, filter HistoryFilter, params pagination.Params) ([]models.StockMovement, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// StockRow is one size with its product name, as listed to admins.
type StockRow struct {
	ProductSizeID uuid.UUID `json:"product_size_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Size          string    `json:"size"`
	SKU           string    `json:"sku"`
	Stock         int       `json:"stock"`
}

type StockFilter struct {
	LowStockThreshold *int
	ProductID         *uuid.UUID
}

type HistoryFilter struct {
	ProductID     *uuid.UUID
	ProductSizeID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ApplyDelta moves stock by delta only while the result stays non-negative and
// returns the balance read back on the same connection.
func (r *repository) ApplyDelta(ctx context.Context, sizeID, productID uuid.UUID, delta int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("id = ? AND product_id = ? AND stock + ? >= 0", sizeID, productID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ProductSize{}).
			Where("id = ? AND product_id = ?", sizeID, productID).
			Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, ErrSizeNotFound
		}
		return 0, ErrInsufficientStock
	}
	return r.readStock(ctx, sizeID)
}

// TryDecrement takes quantity off a size when enough is left. ok is false when
// the size is missing or short; stock is then untouched.
func (r *repository) TryDecrement(ctx context.Context, sizeID uuid.UUID, quantity int) (int, bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("id = ? AND stock >= ?", sizeID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	balance, err := r.readStock(ctx, sizeID)
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

// Stock returns the current stock of a size, or ErrSizeNotFound.
func (r *repository) Stock(ctx context.Context, sizeID uuid.UUID) (int, error) {
	stock, err := r.readStock(ctx, sizeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrSizeNotFound
	}
	return stock, err
}

func (r *repository) readStock(ctx context.Context, sizeID uuid.UUID) (int, error) {
	var size models.ProductSize
	if err := r.db.WithContext(ctx).
		Select("stock").
		Where("id = ?", sizeID).
		Take(&size).Error; err != nil {
		return 0, err
	}
	return size.Stock, nil
}

func (r *repository) InsertMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListStock(ctx context.Context, filter StockFilter, params pagination.Params) ([]StockRow, int, error) {
	query := r.db.WithContext(ctx).
		Table("products_sizes").
		Select("products_sizes.id AS product_size_id, products_sizes.product_id, products.name AS product_name, products_sizes.size, products_sizes.sku, products_sizes.stock").
		Joins("JOIN products ON products.id = products_sizes.product_id")
	if filter.LowStockThreshold != nil {
		query = query.Where("products_sizes.stock <= ?", *filter.LowStockThreshold)
	}
	if filter.ProductID != nil {
		query = query.Where("products_sizes.product_id = ?", *filter.ProductID)
	}
	query = query.Order("products_sizes.stock ASC").Order("products.name ASC").Order("products_sizes.id ASC")

	query, offset, err := pagination.ApplyOffset(query, params)
	if err != nil {
		return nil, 0, err
	}
	var rows []StockRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, offset, nil
}

func (r *repository) ListHistory(ctx context.Context, filter HistoryFilter, params pagination.Params) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.ProductSizeID != nil {
		query = query.Where("product_size_id = ?", *filter.ProductSizeID)
	}
	query, err := pagination.Apply(query, "", params)
	if err != nil {
		return nil, err
	}
	var movements []models.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("stock <= ?", threshold).
		Count(&count).Error
	return count, err
}
