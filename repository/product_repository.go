package repository

import (
	"context"
	"fmt"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository finds cross-sell partners in the product catalog.
type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Partner, error)
	FindTrending(ctx context.Context, excludeID string, limit int) ([]models.Partner, error)
	FindTopViewedInCategory(ctx context.Context, category, excludeID string, limit int) ([]models.Partner, error)
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository.
func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

// FindByIDs loads the given products. Ids that are not UUIDs are ignored.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Partner, error) {
	valid := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			valid = append(valid, u)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ?", valid).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("find products by ids: %w", err)
	}
	return toPartners(products), nil
}

// FindTrending returns the highest trending products other than excludeID.
func (r *GormProductRepository) FindTrending(ctx context.Context, excludeID string, limit int) ([]models.Partner, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("id::text <> ?", excludeID).
		Order("trending_score DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("find trending products: %w", err)
	}
	return toPartners(products), nil
}

// FindTopViewedInCategory returns the most viewed products in a category.
func (r *GormProductRepository) FindTopViewedInCategory(ctx context.Context, category, excludeID string, limit int) ([]models.Partner, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("category_id::text = ? AND id::text <> ?", category, excludeID).
		Order("views DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("find category products: %w", err)
	}
	return toPartners(products), nil
}

func toPartners(products []models.Product) []models.Partner {
	partners := make([]models.Partner, 0, len(products))
	for _, p := range products {
		partners = append(partners, models.Partner{
			ID:       p.ID.String(),
			Price:    p.Price,
			Trending: p.TrendingScore > 0,
		})
	}
	return partners
}
