package models

// ExplanationType labels an explanation record.
type ExplanationType string

const (
	ExplanationNoPromo  ExplanationType = "NO_PROMO"
	ExplanationDecision ExplanationType = "DECISION"
)

// Explanation reasons.
const (
	ReasonUpliftBelowThreshold = "uplift_below_threshold"
	ReasonNoCandidatesPassed   = "no_candidates_passed"
	ReasonSelectedBest         = "selected_best_candidate"
)

// UICard is the presentation copy attached to an approved promotion.
type UICard struct {
	Headline       string `json:"headline"`
	Subtext        string `json:"subtext"`
	Rationale      string `json:"rationale"`
	CTA            string `json:"cta"`
	PromotionLabel string `json:"promotion_label"`
	DurationHours  int    `json:"duration_hours"`
}

// ExposurePayload is published for APPROVED decisions.
type ExposurePayload struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"product_id"`
	ProductName        string    `json:"product_name"`
	Candidate          Candidate `json:"candidate"`
	UI                 UICard    `json:"ui"`
	UpliftScore        float64   `json:"uplift_score"`
	ExpectedIncRevenue float64   `json:"expected_inc_revenue"`
	TopDrivers         []Driver  `json:"top_drivers"`
	CreatedAt          string    `json:"created_at"`
}

// ExplanationInput is the input block of a NO_CANDIDATE or DECISION explanation.
type ExplanationInput struct {
	Event     RawProductEvent `json:"evt"`
	Evaluated []Candidate     `json:"evaluated"`
}

// ExplanationPayload is published for SKIPPED, NO_CANDIDATE and APPROVED decisions.
type ExplanationPayload struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Type        ExplanationType `json:"type"`
	Reason      string          `json:"reason"`
	Input       interface{}     `json:"input"`
	Selected    *Candidate      `json:"selected,omitempty"`
	UpliftScore *float64        `json:"uplift_score,omitempty"`
	TopDrivers  []Driver        `json:"top_drivers,omitempty"`
}

// ReviewPayload is published instead of an exposure when a decision needs
// manual review.
type ReviewPayload struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Candidate   Candidate `json:"candidate"`
	UpliftScore float64   `json:"uplift_score"`
	TopDrivers  []Driver  `json:"top_drivers"`
}

// PromotionApprovedEvent mirrors an approval to SNS subscribers.
type PromotionApprovedEvent struct {
	EventType      string  `json:"event_type"`
	ExposureID     string  `json:"exposure_id"`
	ProductID      string  `json:"product_id"`
	PromotionType  string  `json:"promotion_type"`
	PromotionLabel string  `json:"promotion_label"`
	PromoCost      float64 `json:"promo_cost"`
	UpliftScore    float64 `json:"uplift_score"`
	Timestamp      string  `json:"timestamp"`
}
