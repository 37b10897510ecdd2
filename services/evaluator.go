package services

import (
	"math"

	"github.com/SujaySAK777/StreamIQ/models"
)

const (
	discountCostShare   = 0.4
	bogoCostShare       = 0.2
	mirrorPartnerShare  = 0.05
	combineBundleFactor = 0.9
)

// Evaluator projects the economics of a candidate.
type Evaluator struct {
	ExpectedReach float64
	UnitMarginPct float64
}

// NewEvaluator creates an Evaluator from the engine configuration.
func NewEvaluator(cfg EngineConfig) *Evaluator {
	return &Evaluator{ExpectedReach: cfg.ExpectedReach, UnitMarginPct: cfg.UnitMarginPct}
}

// Evaluate returns a copy of c with its projected sales, revenue, cost,
// objective and margin filled in.
func (e *Evaluator) Evaluate(evt models.NormalizedEvent, uplift float64, c models.Candidate) models.Candidate {
	price := evt.Price
	reach := e.ExpectedReach
	incSales := uplift * reach

	var promoCost, incRevenue float64
	switch c.Type {
	case models.CandidateDiscount:
		promoCost = float64(c.Discount()) / 100 * price * reach * discountCostShare
		incRevenue = incSales * price
	case models.CandidateBOGO:
		promoCost = bogoCostShare * price * reach
		incRevenue = incSales * price
	case models.CandidateBundleMirror:
		promoCost = float64(c.Discount())/100*price*reach*discountCostShare +
			mirrorPartnerShare*c.PartnerPrice*reach*discountCostShare
		incRevenue = incSales*price + incSales*c.PartnerPrice
	case models.CandidateBundleCombine:
		combined := c.BundlePrice
		if combined == 0 {
			combined = (price + c.PartnerPrice) * combineBundleFactor
		}
		promoCost = (price+c.PartnerPrice)*reach - combined*reach
		incRevenue = incSales * combined
	}

	objective := incRevenue - promoCost
	costPerUnit := promoCost / math.Max(1, incSales)

	c.EstimatedIncSales = round(incSales, 3)
	c.EstimatedIncRevenue = round(incRevenue, 2)
	c.PromoCost = round(promoCost, 2)
	c.Objective = round(objective, 2)
	c.PromoCostPerUnit = round(costPerUnit, 2)
	c.ExpectedMarginAfter = round(e.UnitMarginPct-costPerUnit, 4)
	return c
}

// EvaluateAll evaluates every candidate, preserving order.
func (e *Evaluator) EvaluateAll(evt models.NormalizedEvent, uplift float64, candidates []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, e.Evaluate(evt, uplift, c))
	}
	return out
}
