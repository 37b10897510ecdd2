package models

// CandidateType identifies the promotion mechanic of a Candidate.
type CandidateType string

const (
	CandidateDiscount CandidateType = "discount"
	CandidateBOGO     CandidateType = "bogo"

	// Bundle kinds are understood by the evaluator and rule filter but the
	// generator does not emit them.
	CandidateBundleMirror  CandidateType = "bundle_mirror"
	CandidateBundleCombine CandidateType = "bundle_combine"
)

// Candidate is a proposed promotion. The economic fields are zero until the
// evaluator has run.
type Candidate struct {
	ID          string        `json:"id"`
	Type        CandidateType `json:"type"`
	DiscountPct *int          `json:"discountPct,omitempty"`

	PartnerID    string  `json:"partnerId,omitempty"`
	PartnerPrice float64 `json:"partnerPrice,omitempty"`
	BundlePrice  float64 `json:"bundlePrice,omitempty"`

	EstimatedIncSales   float64 `json:"estimated_inc_sales"`
	EstimatedIncRevenue float64 `json:"estimated_inc_revenue"`
	PromoCost           float64 `json:"promo_cost"`
	Objective           float64 `json:"objective"`
	PromoCostPerUnit    float64 `json:"promo_cost_per_unit"`
	ExpectedMarginAfter float64 `json:"expected_margin_after"`
}

// Discount returns the discount percentage, or 0 when none is set.
func (c Candidate) Discount() int {
	if c.DiscountPct == nil {
		return 0
	}
	return *c.DiscountPct
}

// Partner is a product that could be paired with the promoted product.
type Partner struct {
	ID       string  `json:"id"`
	Price    float64 `json:"price"`
	Trending bool    `json:"trending"`
}
