package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDecisionNotFound is returned when no audit record has the requested id.
var ErrDecisionNotFound = errors.New("decision not found")

// DecisionRepository defines the decision audit log.
type DecisionRepository interface {
	Record(ctx context.Context, decision *models.PromotionDecision) error
	FindAll(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromotionDecision, error)
}

// GormDecisionRepository implements DecisionRepository using GORM.
type GormDecisionRepository struct {
	db *gorm.DB
}

// NewGormDecisionRepository creates a new GormDecisionRepository.
func NewGormDecisionRepository(db *gorm.DB) DecisionRepository {
	return &GormDecisionRepository{db: db}
}

// Record inserts one audit row.
func (r *GormDecisionRepository) Record(ctx context.Context, decision *models.PromotionDecision) error {
	if err := r.db.WithContext(ctx).Create(decision).Error; err != nil {
		return fmt.Errorf("insert promotion decision: %w", err)
	}
	return nil
}

// FindAll retrieves paginated audit rows, newest first.
func (r *GormDecisionRepository) FindAll(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, error) {
	var decisions []models.PromotionDecision
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PromotionDecision{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&decisions).Error; err != nil {
		return nil, 0, err
	}

	return decisions, total, nil
}

// FindByID retrieves one audit row.
func (r *GormDecisionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromotionDecision, error) {
	var decision models.PromotionDecision
	err := r.db.WithContext(ctx).
		Where("decision_id = ?", id).
		First(&decision).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDecisionNotFound
		}
		return nil, err
	}
	return &decision, nil
}
