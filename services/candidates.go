package services

import (
	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/google/uuid"
)

// discountTier maps an existing discount range [below previous, Below) to the
// additional discount offered on top of it.
type discountTier struct {
	Below   float64
	Offered int
}

// Less room left on the price means a smaller new discount.
var discountTiers = []discountTier{
	{Below: 5, Offered: 20},
	{Below: 15, Offered: 15},
	{Below: 25, Offered: 10},
}

const heavilyDiscountedOffer = 5

// OfferedDiscountPct returns the discount tier for a product whose current
// discount is currentPct percent.
func OfferedDiscountPct(currentPct float64) int {
	for _, t := range discountTiers {
		if currentPct < t.Below {
			return t.Offered
		}
	}
	return heavilyDiscountedOffer
}

// GenerateCandidates builds the candidate set for an event: one discount at
// the tier for its current discount, and one BOGO. Partners are accepted for
// bundle kinds, which are not offered at present.
func GenerateCandidates(evt models.NormalizedEvent, _ float64, _ []models.Partner) []models.Candidate {
	pct := OfferedDiscountPct(evt.CurrentDiscount)
	return []models.Candidate{
		{ID: uuid.NewString(), Type: models.CandidateDiscount, DiscountPct: &pct},
		{ID: uuid.NewString(), Type: models.CandidateBOGO},
	}
}
