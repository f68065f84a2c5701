package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/pagination"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Category   string
	ActiveOnly bool
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductDetail loads the product with colors and sizes.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("size ASC") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns one page of products, newest first, with sizes.
func (r *Repository) ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Sizes")
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	query, err := pagination.Apply(query, "", params)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindSize loads a single size row.
func (r *Repository) FindSize(ctx context.Context, sizeID uuid.UUID) (*models.ProductSize, error) {
	var size models.ProductSize
	if err := r.db.WithContext(ctx).First(&size, "id = ?", sizeID).Error; err != nil {
		return nil, err
	}
	return &size, nil
}

// FindSizeWithProduct loads a size and the product it belongs to.
func (r *Repository) FindSizeWithProduct(ctx context.Context, sizeID uuid.UUID) (*models.ProductSize, *models.Product, error) {
	size, err := r.FindSize(ctx, sizeID)
	if err != nil {
		return nil, nil, err
	}
	product, err := r.FindByID(ctx, size.ProductID)
	if err != nil {
		return nil, nil, err
	}
	return size, product, nil
}

// CreateProduct inserts the product together with its colors and sizes.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateFields writes the scalar product columns only.
func (r *Repository) UpdateFields(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select("name", "slug", "description", "category", "price", "images", "is_active").
		Updates(product).Error
}

// ReplaceColors swaps the product's colors. Sizes lose their color link and
// are relinked by the caller.
func (r *Repository) ReplaceColors(ctx context.Context, productID uuid.UUID, colors []models.ProductColor) ([]models.ProductColor, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("product_id = ?", productID).
		Update("color_id", nil).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductColor{}).Error; err != nil {
		return nil, err
	}
	if len(colors) == 0 {
		return nil, nil
	}
	for i := range colors {
		colors[i].ProductID = productID
	}
	if err := r.db.WithContext(ctx).Create(&colors).Error; err != nil {
		return nil, err
	}
	return colors, nil
}

// UpdateSizeAttributes changes labels of an existing size. Stock is never
// written here; it moves through the ledger.
func (r *Repository) UpdateSizeAttributes(ctx context.Context, size *models.ProductSize) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("id = ? AND product_id = ?", size.ID, size.ProductID).
		Updates(map[string]any{
			"size":     size.Size,
			"sku":      size.SKU,
			"color_id": size.ColorID,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) CreateSize(ctx context.Context, size *models.ProductSize) error {
	return r.db.WithContext(ctx).Create(size).Error
}

// Deactivate hides a product from the storefront and reports whether it existed.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}
