package newsletter

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	Create(ctx context.Context, subscriber *models.NewsletterSubscriber) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SubscriberStatus, source string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	var subscriber models.NewsletterSubscriber
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&subscriber).Error; err != nil {
		return nil, err
	}
	return &subscriber, nil
}

func (r *repository) Create(ctx context.Context, subscriber *models.NewsletterSubscriber) error {
	return r.db.WithContext(ctx).Create(subscriber).Error
}

// UpdateStatus leaves source untouched when it is empty.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SubscriberStatus, source string) error {
	updates := map[string]any{"status": status}
	if source != "" {
		updates["source"] = source
	}
	return r.db.WithContext(ctx).
		Model(&models.NewsletterSubscriber{}).
		Where("id = ?", id).
		Updates(updates).Error
}
