package services

import "github.com/SujaySAK777/StreamIQ/models"

// NeedsPromotion reports whether an ingested event is worth running through
// the engine: slow sellers, abandoned carts, weak trending, or heavily viewed
// products nobody buys.
func NeedsPromotion(evt models.NormalizedEvent) bool {
	return evt.PurchasesLastHour < 5 ||
		evt.CartAbandonment == 1 ||
		evt.TrendingScore < 50 ||
		(evt.Views > 10 && evt.PurchasesLastHour == 0)
}
