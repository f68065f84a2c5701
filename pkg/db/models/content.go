package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qyve/storefront/pkg/enums"
)

type CrawledArticle struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	URL         string     `gorm:"column:url;not null;uniqueIndex"`
	Title       string     `gorm:"column:title;not null"`
	Summary     string     `gorm:"column:summary;not null;default:''"`
	ImageURL    string     `gorm:"column:image_url;not null;default:''"`
	Source      string     `gorm:"column:source;not null"`
	Score       int        `gorm:"column:score;not null;default:0"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

type NewsletterSubscriber struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Email     string                 `gorm:"column:email;not null;uniqueIndex"`
	Status    enums.SubscriberStatus `gorm:"column:status;type:text;not null"`
	Source    string                 `gorm:"column:source;not null;default:''"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
