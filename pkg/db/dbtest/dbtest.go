// Package dbtest opens throwaway sqlite databases carrying the storefront schema.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/db/models"
)

// Open returns an isolated in-memory database migrated with every model.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:qyve_" + uuid.NewString() + "?mode=memory&cache=shared&_fk=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Client wraps Open in the transaction-aware db client.
func Client(t *testing.T) *db.Client {
	t.Helper()
	return db.Wrap(Open(t))
}

// SizeSeed describes one size row for SeedProduct.
type SizeSeed struct {
	Size  string
	Stock int
}

// SeedProduct inserts an active product with the given sizes.
func SeedProduct(t *testing.T, conn *gorm.DB, name, price string, sizes ...SizeSeed) models.Product {
	t.Helper()
	product := models.Product{
		Name:     name,
		Slug:     "p-" + uuid.NewString()[:8],
		Category: "jersey",
		Price:    decimal.RequireFromString(price),
		Images:   pq.StringArray{"https://cdn.qyve.id/" + uuid.NewString()[:8] + ".jpg"},
		IsActive: true,
	}
	for _, size := range sizes {
		product.Sizes = append(product.Sizes, models.ProductSize{Size: size.Size, Stock: size.Stock})
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// Stock reads the current stock of a size.
func Stock(t *testing.T, conn *gorm.DB, sizeID uuid.UUID) int {
	t.Helper()
	var size models.ProductSize
	if err := conn.First(&size, "id = ?", sizeID).Error; err != nil {
		t.Fatalf("load size %s: %v", sizeID, err)
	}
	return size.Stock
}
