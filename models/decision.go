package models

// Outcome is the terminal state of one engine run.
type Outcome string

const (
	OutcomeSkipped     Outcome = "SKIPPED"
	OutcomeNoCandidate Outcome = "NO_CANDIDATE"
	OutcomeReview      Outcome = "REVIEW"
	OutcomeApproved    Outcome = "APPROVED"
)

// SignalContribution is one weighted term of the uplift score.
type SignalContribution struct {
	Signal string  `json:"signal"`
	Value  float64 `json:"value"`
}

// UpliftResult holds the uplift score and its per-signal breakdown, in the
// order the signals were computed.
type UpliftResult struct {
	Score         float64              `json:"score"`
	Contributions []SignalContribution `json:"contributions"`
}

// Contribution returns the weighted value recorded for signal.
func (u UpliftResult) Contribution(signal string) (float64, bool) {
	for _, c := range u.Contributions {
		if c.Signal == signal {
			return c.Value, true
		}
	}
	return 0, false
}

// Driver is a ranked signal contributor used in explanations.
type Driver struct {
	Driver string  `json:"driver"`
	Score  float64 `json:"score"`
}

// SelectionReason records which selector branch picked the candidate.
type SelectionReason string

const (
	SelectionLowUplift       SelectionReason = "bogo_low_uplift"
	SelectionCartAbandonment SelectionReason = "bogo_cart_abandonment"
	SelectionExploration     SelectionReason = "bogo_exploration"
	SelectionBestObjective   SelectionReason = "highest_objective"
)

// Decision is the result of processing one product event.
type Decision struct {
	ID         string           `json:"id"`
	ProductID  string           `json:"product_id"`
	Outcome    Outcome          `json:"outcome"`
	Candidate  *Candidate       `json:"candidate,omitempty"`
	Reason     SelectionReason  `json:"selection_reason,omitempty"`
	Uplift     UpliftResult     `json:"uplift"`
	TopDrivers []Driver         `json:"top_drivers"`
	Evaluated  []Candidate      `json:"evaluated,omitempty"`
	Exposure   *ExposurePayload `json:"exposure,omitempty"`
}
