package crawler

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/pagination"
)

type Repository interface {
	Upsert(ctx context.Context, article *models.CrawledArticle) error
	List(ctx context.Context, params pagination.Params) ([]models.CrawledArticle, int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert inserts the article or refreshes the stored copy with the same url.
func (r *repository) Upsert(ctx context.Context, article *models.CrawledArticle) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "summary", "image_url", "score", "source", "updated_at"}),
		}).
		Create(article).Error
}

// List orders by score, then recency.
func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.CrawledArticle, int, error) {
	query, offset, err := pagination.ApplyOffset(
		r.db.WithContext(ctx).Model(&models.CrawledArticle{}).Order("score DESC").Order("created_at DESC").Order("id"),
		params,
	)
	if err != nil {
		return nil, 0, err
	}
	var rows []models.CrawledArticle
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, offset, nil
}
