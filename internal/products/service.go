package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qyve/storefront/internal/ledger"
	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/pagination"
)

// Service exposes the catalog to shoppers and admins.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (pagination.Page[ProductDTO], error)
	GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error)
	CreateProduct(ctx context.Context, actorEmail string, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type ListProductsInput struct {
	Category        string
	IncludeInactive bool
	Params          pagination.Params
}

// ProductInput is the full product as submitted by an admin.
type ProductInput struct {
	Name        string
	Slug        string
	Description string
	Category    string
	Price       decimal.Decimal
	Images      []string
	IsActive    *bool
	Colors      []ColorInput
	Sizes       []SizeInput
}

type ColorInput struct {
	Name string
	Hex  string
}

// SizeInput describes a size. ID selects an existing size on update; Stock is
// only read when the size is created.
type SizeInput struct {
	ID    *uuid.UUID
	Size  string
	SKU   string
	Color string
	Stock int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   *Repository
	ledger ledger.Repository
	tx     txRunner
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, ledgerRepo ledger.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, ledger: ledgerRepo, tx: tx}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (pagination.Page[ProductDTO], error) {
	filter := ListFilter{
		Category:   strings.ToLower(strings.TrimSpace(input.Category)),
		ActiveOnly: !input.IncludeInactive,
	}
	rows, err := s.repo.ListProducts(ctx, filter, input.Params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	page := pagination.Build(rows, input.Params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	out := pagination.Page[ProductDTO]{Items: make([]ProductDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewProductDTO(&page.Items[i]))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	product, err := s.repo.GetProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// CreateProduct inserts the product with its colors and sizes. Opening stock
// is logged as IN movements so the ledger starts from the same balance.
func (s *service) CreateProduct(ctx context.Context, actorEmail string, input ProductInput) (*ProductDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	for _, size := range input.Sizes {
		if size.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size stock must be non-negative")
		}
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slugOrDefault(input.Slug, input.Name),
		Description: input.Description,
		Category:    strings.ToLower(strings.TrimSpace(input.Category)),
		Price:       input.Price,
		Images:      pq.StringArray(input.Images),
		IsActive:    input.IsActive == nil || *input.IsActive,
	}

	var actor *string
	if email := strings.TrimSpace(actorEmail); email != "" {
		actor = &email
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.CreateProduct(ctx, product); err != nil {
			return err
		}
		colors, err := txRepo.ReplaceColors(ctx, product.ID, buildColors(input.Colors))
		if err != nil {
			return err
		}
		colorIDs := colorIndex(colors)

		ledgerRepo := s.ledger.WithTx(tx)
		for _, in := range input.Sizes {
			size := &models.ProductSize{
				ProductID: product.ID,
				ColorID:   colorIDs[strings.ToLower(strings.TrimSpace(in.Color))],
				Size:      strings.TrimSpace(in.Size),
				SKU:       strings.TrimSpace(in.SKU),
				Stock:     in.Stock,
			}
			if err := txRepo.CreateSize(ctx, size); err != nil {
				return err
			}
			if in.Stock == 0 {
				continue
			}
			if err := ledgerRepo.InsertMovement(ctx, &models.StockMovement{
				ProductID:     product.ID,
				ProductSizeID: size.ID,
				Delta:         in.Stock,
				Type:          enums.StockMovementIn,
				BalanceAfter:  in.Stock,
				Note:          "initial stock",
				ActorEmail:    actor,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, writeError(err, "create product")
	}
	return s.GetProduct(ctx, product.ID, true)
}

// UpdateProduct rewrites the product fields, replaces colors and upserts
// sizes. Existing stock is left alone.
func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.GetProductDetail(ctx, id)
		if err != nil {
			return err
		}

		product.Name = strings.TrimSpace(input.Name)
		product.Slug = slugOrDefault(input.Slug, input.Name)
		product.Description = input.Description
		product.Category = strings.ToLower(strings.TrimSpace(input.Category))
		product.Price = input.Price
		product.Images = pq.StringArray(input.Images)
		if input.IsActive != nil {
			product.IsActive = *input.IsActive
		}
		if err := txRepo.UpdateFields(ctx, product); err != nil {
			return err
		}

		colors, err := txRepo.ReplaceColors(ctx, id, buildColors(input.Colors))
		if err != nil {
			return err
		}
		colorIDs := colorIndex(colors)

		byLabel := make(map[string]models.ProductSize, len(product.Sizes))
		for _, size := range product.Sizes {
			byLabel[strings.ToLower(size.Size)] = size
		}
		for _, in := range input.Sizes {
			size := models.ProductSize{
				ProductID: id,
				ColorID:   colorIDs[strings.ToLower(strings.TrimSpace(in.Color))],
				Size:      strings.TrimSpace(in.Size),
				SKU:       strings.TrimSpace(in.SKU),
			}
			switch {
			case in.ID != nil:
				size.ID = *in.ID
			default:
				if existing, ok := byLabel[strings.ToLower(size.Size)]; ok {
					size.ID = existing.ID
				}
			}
			if size.ID == uuid.Nil {
				if in.Stock < 0 {
					return pkgerrors.New(pkgerrors.CodeValidation, "size stock must be non-negative")
				}
				size.Stock = in.Stock
				if err := txRepo.CreateSize(ctx, &size); err != nil {
					return err
				}
				if in.Stock > 0 {
					if err := s.ledger.WithTx(tx).InsertMovement(ctx, &models.StockMovement{
						ProductID:     id,
						ProductSizeID: size.ID,
						Delta:         in.Stock,
						Type:          enums.StockMovementIn,
						BalanceAfter:  in.Stock,
						Note:          "initial stock",
					}); err != nil {
						return err
					}
				}
				continue
			}
			updated, err := txRepo.UpdateSizeAttributes(ctx, &size)
			if err != nil {
				return err
			}
			if updated == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "size does not belong to product")
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, writeError(err, "update product")
	}
	return s.GetProduct(ctx, id, true)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func validateInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	seen := map[string]struct{}{}
	for _, size := range input.Sizes {
		label := strings.ToLower(strings.TrimSpace(size.Size))
		if label == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "size label is required")
		}
		if _, dup := seen[label]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate size %q", size.Size))
		}
		seen[label] = struct{}{}
	}
	colors := map[string]struct{}{}
	for _, color := range input.Colors {
		colors[strings.ToLower(strings.TrimSpace(color.Name))] = struct{}{}
	}
	for _, size := range input.Sizes {
		name := strings.ToLower(strings.TrimSpace(size.Color))
		if name == "" {
			continue
		}
		if _, ok := colors[name]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size %q references unknown color %q", size.Size, size.Color))
		}
	}
	return nil
}

func buildColors(inputs []ColorInput) []models.ProductColor {
	colors := make([]models.ProductColor, 0, len(inputs))
	for _, in := range inputs {
		colors = append(colors, models.ProductColor{
			Name: strings.TrimSpace(in.Name),
			Hex:  strings.TrimSpace(in.Hex),
		})
	}
	return colors
}

func colorIndex(colors []models.ProductColor) map[string]*uuid.UUID {
	index := make(map[string]*uuid.UUID, len(colors))
	for i := range colors {
		id := colors[i].ID
		index[strings.ToLower(colors[i].Name)] = &id
	}
	return index
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases and hyphenates a product name.
func Slugify(value string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	return strings.Trim(slug, "-")
}

func slugOrDefault(slug, name string) string {
	if s := Slugify(slug); s != "" {
		return s
	}
	return Slugify(name)
}

func writeError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsUniqueViolation(err, "slug") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slug already in use")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
