package models

// RawProductEvent is a product telemetry message as it arrives on the wire.
// Field types are not trusted; services.NormalizeEvent turns it into a
// NormalizedEvent.
type RawProductEvent map[string]interface{}

// NormalizedEvent is the strongly typed view of a RawProductEvent.
type NormalizedEvent struct {
	ProductID         string   `json:"product_id"`
	Name              string   `json:"name"`
	Price             float64  `json:"price"`
	Views             float64  `json:"views"`
	PurchasesLastHour float64  `json:"purchases_last_hour"`
	CartAbandonment   float64  `json:"cart_abandonment"` // clamped to [0,1]
	TimeOnPageSeconds float64  `json:"time_on_product_page"`
	Rating            float64  `json:"rating"`
	Category          string   `json:"category,omitempty"`
	CurrentDiscount   float64  `json:"discount_applied"` // percent, >= 0
	CouponUsed        float64  `json:"coupon_used"`      // clamped to [0,1]
	TrendingScore     float64  `json:"trending_score"`
	RelatedProducts   []string `json:"related_products,omitempty"`
}

// DisplayName returns the product name or a placeholder for UI payloads.
func (e NormalizedEvent) DisplayName() string {
	if e.Name == "" {
		return "Unknown Product"
	}
	return e.Name
}
