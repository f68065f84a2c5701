package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Postgres fills ids through gen_random_uuid(); assigning them client side
// keeps the same models usable on sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(*gorm.DB) error          { ensureID(&p.ID); return nil }
func (c *ProductColor) BeforeCreate(*gorm.DB) error     { ensureID(&c.ID); return nil }
func (s *ProductSize) BeforeCreate(*gorm.DB) error      { ensureID(&s.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error             { ensureID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error         { ensureID(&i.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error            { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error        { ensureID(&i.ID); return nil }
func (a *OrderAddress) BeforeCreate(*gorm.DB) error     { ensureID(&a.ID); return nil }
func (c *OrderContactInfo) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }
func (m *StockMovement) BeforeCreate(*gorm.DB) error    { ensureID(&m.ID); return nil }
func (a *CrawledArticle) BeforeCreate(*gorm.DB) error   { ensureID(&a.ID); return nil }
func (s *NewsletterSubscriber) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
func (e *OutboxEvent) BeforeCreate(*gorm.DB) error { ensureID(&e.ID); return nil }
func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error   { ensureID(&d.ID); return nil }

// All lists every persisted model in dependency order, for AutoMigrate on
// sqlite. Postgres schemas come from the goose migrations.
func All() []any {
	return []any{
		&Product{},
		&ProductColor{},
		&ProductSize{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderAddress{},
		&OrderContactInfo{},
		&StockMovement{},
		&CrawledArticle{},
		&NewsletterSubscriber{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
