package services

import "github.com/SujaySAK777/StreamIQ/models"

// ReviewGate escalates expensive promotions to manual review.
type ReviewGate struct {
	Threshold float64
}

// NewReviewGate creates a ReviewGate from the engine configuration.
func NewReviewGate(cfg EngineConfig) *ReviewGate {
	return &ReviewGate{Threshold: cfg.ManualReviewThreshold}
}

// RequiresReview reports whether c's promotion cost exceeds the threshold.
func (g *ReviewGate) RequiresReview(c models.Candidate) bool {
	return c.PromoCost > g.Threshold
}
