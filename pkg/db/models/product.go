package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Stock lives on its sizes.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	Description string          `gorm:"column:description;not null;default:''"`
	Category    string          `gorm:"column:category;not null;index"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Images      pq.StringArray  `gorm:"column:images;type:text[]"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	Colors      []ProductColor  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Sizes       []ProductSize   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

type ProductColor struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Hex       string    `gorm:"column:hex;not null;default:''"`
}

// ProductSize is the sellable unit. Stock never goes below zero.
type ProductSize struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	ColorID   *uuid.UUID `gorm:"column:color_id;type:uuid"`
	Size      string     `gorm:"column:size;not null"`
	SKU       string     `gorm:"column:sku;not null;default:''"`
	Stock     int        `gorm:"column:stock;not null;default:0;check:chk_products_sizes_stock,stock >= 0"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductSize) TableName() string {
	return "products_sizes"
}
