package services

import (
	"context"
	"errors"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/SujaySAK777/StreamIQ/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DecisionQuery reads the decision audit log.
type DecisionQuery interface {
	FindAll(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromotionDecision, error)
}

// PromotionService defines the HTTP-facing promotion operations.
type PromotionService interface {
	Evaluate(ctx context.Context, raw models.RawProductEvent) (*models.Decision, *ServiceError)
	Stats() CountersSnapshot
	ListDecisions(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, *ServiceError)
	GetDecision(ctx context.Context, id string) (*models.PromotionDecision, *ServiceError)
}

type promotionServiceImpl struct {
	agent     *PromotionAgent
	decisions DecisionQuery
	logger    *zap.Logger
}

// NewPromotionService creates a new PromotionService. decisions may be nil
// when the service runs without a store.
func NewPromotionService(agent *PromotionAgent, decisions DecisionQuery, logger *zap.Logger) PromotionService {
	return &promotionServiceImpl{
		agent:     agent,
		decisions: decisions,
		logger:    logger,
	}
}

// Evaluate runs the engine synchronously on one event.
func (s *promotionServiceImpl) Evaluate(ctx context.Context, raw models.RawProductEvent) (*models.Decision, *ServiceError) {
	if len(raw) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Event body is required"}
	}
	decision := s.agent.ProcessEvent(ctx, raw)
	if decision == nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to evaluate event"}
	}
	return decision, nil
}

// Stats returns the engine counters.
func (s *promotionServiceImpl) Stats() CountersSnapshot {
	return s.agent.Counters().Snapshot()
}

// ListDecisions returns paginated audit records.
func (s *promotionServiceImpl) ListDecisions(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, *ServiceError) {
	if s.decisions == nil {
		return nil, 0, storeUnavailable()
	}
	decisions, total, err := s.decisions.FindAll(ctx, page, limit)
	if err != nil {
		if errors.Is(err, ErrNoStore) {
			return nil, 0, storeUnavailable()
		}
		s.logger.Error("Failed to list decisions", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list decisions"}
	}
	return decisions, total, nil
}

// GetDecision returns one audit record by decision id.
func (s *promotionServiceImpl) GetDecision(ctx context.Context, id string) (*models.PromotionDecision, *ServiceError) {
	if s.decisions == nil {
		return nil, storeUnavailable()
	}
	decisionID, err := uuid.Parse(id)
	if err != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid decision id"}
	}
	decision, err := s.decisions.FindByID(ctx, decisionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDecisionNotFound):
			return nil, &ServiceError{StatusCode: 404, Message: "Decision not found"}
		case errors.Is(err, ErrNoStore):
			return nil, storeUnavailable()
		}
		s.logger.Error("Failed to get decision", zap.String("decision_id", id), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to get decision"}
	}
	return decision, nil
}

func storeUnavailable() *ServiceError {
	return &ServiceError{StatusCode: 503, Message: ErrNoStore.Error()}
}
