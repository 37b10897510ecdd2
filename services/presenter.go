package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/SujaySAK777/StreamIQ/models"
)

// PromotionDurationHours is how long an approved promotion is shown.
const PromotionDurationHours = 48

// Presenter writes the UI copy for an approved promotion. It has no say in
// the decision itself.
type Presenter interface {
	Present(ctx context.Context, evt models.NormalizedEvent, c models.Candidate, drivers []models.Driver, uplift float64) models.UICard
}

// PromotionLabel is the short badge text for a candidate.
func PromotionLabel(c models.Candidate) string {
	switch c.Type {
	case models.CandidateDiscount:
		return fmt.Sprintf("%d%% OFF", c.Discount())
	case models.CandidateBOGO:
		return "BOGO"
	default:
		return "Bundle Deal"
	}
}

// TemplatePresenter fills copy from fixed variants.
type TemplatePresenter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplatePresenter creates a TemplatePresenter seeded with seed.
func NewTemplatePresenter(seed uint64) *TemplatePresenter {
	return &TemplatePresenter{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (p *TemplatePresenter) pick(options []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return options[p.rng.IntN(len(options))]
}

// Present implements Presenter.
func (p *TemplatePresenter) Present(_ context.Context, evt models.NormalizedEvent, c models.Candidate, drivers []models.Driver, uplift float64) models.UICard {
	upliftPct := int(math.Round(uplift * 100))
	name := evt.Name
	if name == "" {
		name = "this product"
	}
	d1, s1 := driverAt(drivers, 0, "views")
	d2, s2 := driverAt(drivers, 1, "rating")

	card := models.UICard{
		CTA:            p.pick([]string{"Grab Deal", "Shop Now", "Get Offer", "Claim Savings", "Buy Now"}),
		PromotionLabel: PromotionLabel(c),
		DurationHours:  PromotionDurationHours,
	}

	if c.Type == models.CandidateBOGO {
		behaviour := fmt.Sprintf("%.0f views without conversion", evt.Views)
		if evt.CartAbandonment == 1 {
			behaviour = "cart abandonment behavior"
		}
		card.Headline = p.pick([]string{
			"Buy 1 Get 1 FREE - Today Only!",
			"BOGO Alert: Double Your Value",
			"2X Deal: Buy One, Get One",
			"Free Extra Item with Purchase",
			"Special BOGO Offer Inside",
		})
		card.Subtext = p.pick([]string{
			"Perfect for bulk buyers - maximize your savings now",
			"Double the value - customers love 2-for-1 deals",
			"Stock up and save - ideal for frequently purchased items",
			"Share with family or save for later - incredible value",
		})
		card.Rationale = p.pick([]string{
			fmt.Sprintf("We've noticed %s. A BOGO offer adds tangible value where a straight discount would not.", behaviour),
			fmt.Sprintf("%s contributes %d%% to the purchase signal; buy-one-get-one tends to beat percentage discounts for this profile.", d1, s1),
			fmt.Sprintf("%s shows moderate engagement (%d%% uplift potential). BOGO rewards browsers on the fence without heavy discounting.", name, upliftPct),
			fmt.Sprintf("Deal-seeking signals (%s: %d%%, %s: %d%%) favour extra quantity over abstract savings.", d1, s1, d2, s2),
		})
		return card
	}

	pct := c.Discount()
	card.Headline = p.pick([]string{
		fmt.Sprintf("Save %d%% Now - Limited Time!", pct),
		fmt.Sprintf("%d%% Off Flash Deal", pct),
		fmt.Sprintf("Exclusive %d%% Discount", pct),
		fmt.Sprintf("Hot Deal: %d%% Off Today", pct),
	})
	card.Subtext = p.pick([]string{
		"High demand detected - grab it before it's gone",
		"Customer favorite with strong purchase intent",
		fmt.Sprintf("Trending item - %d%% conversion boost expected", upliftPct),
		"Popular choice - limited stock remaining",
	})
	card.Rationale = p.pick([]string{
		fmt.Sprintf("%s drives %d%% of the signal and %s adds %d%%. A %d%% discount converts hesitant browsers (%.0f views) without eroding margin.", d1, s1, d2, s2, pct, evt.Views),
		fmt.Sprintf("%s has %d%% purchase probability. The %d%% offer targets the top driver (%s: %d%%) while preserving profitability.", name, upliftPct, pct, d1, s1),
		fmt.Sprintf("With %.0f views and a %d%% uplift score, customers are interested but need a push; %d%% targets %s (%d%%).", evt.Views, upliftPct, pct, d1, s1),
	})
	return card
}

func driverAt(drivers []models.Driver, i int, fallback string) (string, int) {
	if i >= len(drivers) {
		return fallback, 0
	}
	return strings.ReplaceAll(drivers[i].Driver, "_", " "), int(math.Round(drivers[i].Score * 100))
}
