package services

import "github.com/SujaySAK777/StreamIQ/models"

// RuleFilter rejects candidates whose discount exceeds the configured cap.
// BOGO is never capped.
type RuleFilter struct {
	MaxDiscountPct float64
}

// NewRuleFilter creates a RuleFilter from the engine configuration.
func NewRuleFilter(cfg EngineConfig) *RuleFilter {
	return &RuleFilter{MaxDiscountPct: cfg.MaxDiscountPct}
}

// Passes reports whether c satisfies the discount cap.
func (f *RuleFilter) Passes(c models.Candidate) bool {
	switch c.Type {
	case models.CandidateDiscount, models.CandidateBundleMirror:
		return float64(c.Discount())/100 <= f.MaxDiscountPct
	default:
		return true
	}
}

// Filter returns the passing candidates in their original order.
func (f *RuleFilter) Filter(candidates []models.Candidate) []models.Candidate {
	passing := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f.Passes(c) {
			passing = append(passing, c)
		}
	}
	return passing
}
