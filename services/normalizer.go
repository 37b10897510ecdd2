package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/SujaySAK777/StreamIQ/models"
)

// NormalizeEvent converts a loosely typed event into a NormalizedEvent.
// It never fails: unparsable or non-finite numbers become 0, the two flags
// are clamped to [0,1] and the current discount to >= 0.
func NormalizeEvent(raw models.RawProductEvent) models.NormalizedEvent {
	views := toNumber(raw["product_viewed_count"])
	if views == 0 {
		views = toNumber(raw["views"])
	}

	purchases := toNumber(raw["purchases_last_hour"])
	if purchases == 0 {
		purchases = toNumber(raw["purchase_count"])
	}

	price := toNumber(raw["price"])
	if price == 0 {
		price = toNumber(raw["retail_price"])
	}

	return models.NormalizedEvent{
		ProductID:         firstString(raw, "product_id", "id"),
		Name:              firstString(raw, "name", "product_name", "productName"),
		Price:             price,
		Views:             views,
		PurchasesLastHour: purchases,
		CartAbandonment:   clamp(toNumber(raw["cart_abandonment"]), 0, 1),
		TimeOnPageSeconds: toNumber(raw["time_on_product_page"]),
		Rating:            toNumber(raw["rating"]),
		Category:          firstString(raw, "category"),
		CurrentDiscount:   math.Max(0, toNumber(raw["discount_applied"])),
		CouponUsed:        clamp(toNumber(raw["coupon_used"]), 0, 1),
		TrendingScore:     toNumber(raw["trending_score"]),
		RelatedProducts:   toStrings(raw["related_products"]),
	}
}

// toNumber coerces v to a finite float64, returning 0 for anything else.
func toNumber(v interface{}) float64 {
	var n float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int32:
		n = float64(t)
	case int64:
		n = float64(t)
	case uint:
		n = float64(t)
	case uint64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		n = f
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// firstString returns the first non-empty string-like value among keys.
func firstString(raw models.RawProductEvent, keys ...string) string {
	for _, k := range keys {
		switch t := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			return t.String()
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

func toStrings(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
