package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/pkg/db/models"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	IsActive    bool            `json:"is_active"`
	Colors      []ColorDTO      `json:"colors,omitempty"`
	Sizes       []SizeDTO       `json:"sizes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ColorDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hex  string    `json:"hex,omitempty"`
}

type SizeDTO struct {
	ID      uuid.UUID  `json:"id"`
	Size    string     `json:"size"`
	SKU     string     `json:"sku,omitempty"`
	ColorID *uuid.UUID `json:"color_id,omitempty"`
	Stock   int        `json:"stock"`
}

// NewProductDTO maps a product and whichever associations were loaded.
func NewProductDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Category:    product.Category,
		Price:       product.Price,
		Images:      []string(product.Images),
		IsActive:    product.IsActive,
		Sizes:       make([]SizeDTO, 0, len(product.Sizes)),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if dto.Images == nil {
		dto.Images = []string{}
	}
	for _, color := range product.Colors {
		dto.Colors = append(dto.Colors, ColorDTO{ID: color.ID, Name: color.Name, Hex: color.Hex})
	}
	for _, size := range product.Sizes {
		dto.Sizes = append(dto.Sizes, SizeDTO{
			ID:      size.ID,
			Size:    size.Size,
			SKU:     size.SKU,
			ColorID: size.ColorID,
			Stock:   size.Stock,
		})
	}
	return dto
}
