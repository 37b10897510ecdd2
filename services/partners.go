package services

import (
	"context"

	"github.com/SujaySAK777/StreamIQ/models"
	"go.uber.org/zap"
)

// PartnerLookup is the product store surface used to find partners.
type PartnerLookup interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Partner, error)
	FindTrending(ctx context.Context, excludeID string, limit int) ([]models.Partner, error)
	FindTopViewedInCategory(ctx context.Context, category, excludeID string, limit int) ([]models.Partner, error)
}

// PartnerResolver finds cross-sell partners for a product. Lookup failures
// are logged and treated as empty results.
type PartnerResolver struct {
	lookup PartnerLookup
	limit  int
	logger *zap.Logger
}

// NewPartnerResolver creates a PartnerResolver. A nil lookup always resolves
// to no partners.
func NewPartnerResolver(lookup PartnerLookup, limit int, logger *zap.Logger) *PartnerResolver {
	if limit <= 0 {
		limit = 3
	}
	return &PartnerResolver{lookup: lookup, limit: limit, logger: logger}
}

// Resolve tries the event's related products, then trending products, then
// the most viewed products in the same category. The first non-empty set is
// reduced to its trending members.
func (r *PartnerResolver) Resolve(ctx context.Context, evt models.NormalizedEvent) []models.Partner {
	if r.lookup == nil {
		return nil
	}

	var partners []models.Partner
	if len(evt.RelatedProducts) > 0 {
		ids := evt.RelatedProducts
		if len(ids) > r.limit {
			ids = ids[:r.limit]
		}
		partners = r.try("related", func() ([]models.Partner, error) {
			return r.lookup.FindByIDs(ctx, ids)
		})
	}
	if len(partners) == 0 {
		partners = r.try("trending", func() ([]models.Partner, error) {
			return r.lookup.FindTrending(ctx, evt.ProductID, r.limit)
		})
	}
	if len(partners) == 0 && evt.Category != "" {
		partners = r.try("category", func() ([]models.Partner, error) {
			return r.lookup.FindTopViewedInCategory(ctx, evt.Category, evt.ProductID, r.limit)
		})
	}

	trending := make([]models.Partner, 0, len(partners))
	for _, p := range partners {
		if p.Trending {
			trending = append(trending, p)
		}
		if len(trending) == r.limit {
			break
		}
	}
	return trending
}

func (r *PartnerResolver) try(source string, fn func() ([]models.Partner, error)) []models.Partner {
	partners, err := fn()
	if err != nil {
		r.logger.Warn("Partner lookup failed",
			zap.String("source", source),
			zap.Error(err),
		)
		return nil
	}
	return partners
}
