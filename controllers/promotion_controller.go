package controllers

import (
	"net/http"
	"strconv"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/SujaySAK777/StreamIQ/services"
	"github.com/gin-gonic/gin"
)

// PromotionController handles HTTP requests for the promotion engine.
type PromotionController struct {
	promotionService services.PromotionService
}

// NewPromotionController creates a new PromotionController.
func NewPromotionController(promotionService services.PromotionService) *PromotionController {
	return &PromotionController{promotionService: promotionService}
}

// Evaluate handles POST /promotions/evaluate (admin only).
func (pc *PromotionController) Evaluate(ctx *gin.Context) {
	var raw models.RawProductEvent
	if err := ctx.ShouldBindJSON(&raw); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	decision, svcErr := pc.promotionService.Evaluate(ctx.Request.Context(), raw)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"decision": decision})
}

// Stats handles GET /promotions/stats.
func (pc *PromotionController) Stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, pc.promotionService.Stats())
}

// ListDecisions handles GET /promotions/decisions (admin only).
func (pc *PromotionController) ListDecisions(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	decisions, total, svcErr := pc.promotionService.ListDecisions(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"decisions": decisions,
		"meta": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
			"has_more":    total > int64(page*limit),
		},
	})
}

// GetDecision handles GET /promotions/decisions/:id (admin only).
func (pc *PromotionController) GetDecision(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Decision id is required"})
		return
	}

	decision, svcErr := pc.promotionService.GetDecision(ctx.Request.Context(), id)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"decision": decision})
}

func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}
