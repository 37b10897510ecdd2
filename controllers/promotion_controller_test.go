package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SujaySAK777/StreamIQ/controllers"
	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/SujaySAK777/StreamIQ/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock PromotionService ---

type mockPromotionService struct {
	evaluateFn func(ctx context.Context, raw models.RawProductEvent) (*models.Decision, *services.ServiceError)
	statsFn    func() services.CountersSnapshot
	listFn     func(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, *services.ServiceError)
	getFn      func(ctx context.Context, id string) (*models.PromotionDecision, *services.ServiceError)
}

func (m *mockPromotionService) Evaluate(ctx context.Context, raw models.RawProductEvent) (*models.Decision, *services.ServiceError) {
	return m.evaluateFn(ctx, raw)
}
func (m *mockPromotionService) Stats() services.CountersSnapshot { return m.statsFn() }
func (m *mockPromotionService) ListDecisions(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, *services.ServiceError) {
	return m.listFn(ctx, page, limit)
}
func (m *mockPromotionService) GetDecision(ctx context.Context, id string) (*models.PromotionDecision, *services.ServiceError) {
	return m.getFn(ctx, id)
}

func setupRouter(svc services.PromotionService) *gin.Engine {
	r := gin.New()
	pc := controllers.NewPromotionController(svc)

	r.POST("/promotions/evaluate", pc.Evaluate)
	r.GET("/promotions/stats", pc.Stats)
	r.GET("/promotions/decisions", pc.ListDecisions)
	r.GET("/promotions/decisions/:id", pc.GetDecision)
	return r
}

func TestController_Evaluate_Success(t *testing.T) {
	var got models.RawProductEvent
	svc := &mockPromotionService{
		evaluateFn: func(_ context.Context, raw models.RawProductEvent) (*models.Decision, *services.ServiceError) {
			got = raw
			return &models.Decision{ID: "d-1", ProductID: "p-1", Outcome: models.OutcomeSkipped}, nil
		},
	}
	r := setupRouter(svc)

	body := []byte(`{"product_id":"p-1","views":3}`)
	req, _ := http.NewRequest(http.MethodPost, "/promotions/evaluate", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p-1", got["product_id"])

	var resp struct {
		Decision models.Decision `json:"decision"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.OutcomeSkipped, resp.Decision.Outcome)
}

func TestController_Evaluate_BadRequest(t *testing.T) {
	r := setupRouter(&mockPromotionService{})

	req, _ := http.NewRequest(http.MethodPost, "/promotions/evaluate", bytes.NewBufferString("{bad"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestController_Evaluate_ServiceError(t *testing.T) {
	svc := &mockPromotionService{
		evaluateFn: func(context.Context, models.RawProductEvent) (*models.Decision, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: 500, Message: "Failed to evaluate event"}
		},
	}
	r := setupRouter(svc)

	req, _ := http.NewRequest(http.MethodPost, "/promotions/evaluate", bytes.NewBufferString(`{"views":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to evaluate event")
}

func TestController_Stats(t *testing.T) {
	svc := &mockPromotionService{
		statsFn: func() services.CountersSnapshot {
			return services.CountersSnapshot{Processed: 10, BOGO: 2, Discount: 3, Skipped: 5, SkipRate: 0.5}
		},
	}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/promotions/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 10, resp["total_processed"])
	assert.EqualValues(t, 2, resp["bogo_selected"])
}

func TestController_ListDecisions_Pagination(t *testing.T) {
	var gotPage, gotLimit int
	svc := &mockPromotionService{
		listFn: func(_ context.Context, page, limit int) ([]models.PromotionDecision, int64, *services.ServiceError) {
			gotPage, gotLimit = page, limit
			return []models.PromotionDecision{{DecisionID: uuid.New()}}, 250, nil
		},
	}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/promotions/decisions?page=2&limit=500", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 100, gotLimit)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	meta := resp["meta"].(map[string]interface{})
	assert.EqualValues(t, 3, meta["total_pages"])
	assert.Equal(t, true, meta["has_more"])
}

func TestController_ListDecisions_NoStore(t *testing.T) {
	svc := &mockPromotionService{
		listFn: func(context.Context, int, int) ([]models.PromotionDecision, int64, *services.ServiceError) {
			return nil, 0, &services.ServiceError{StatusCode: 503, Message: services.ErrNoStore.Error()}
		},
	}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/promotions/decisions", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestController_GetDecision_NotFound(t *testing.T) {
	svc := &mockPromotionService{
		getFn: func(_ context.Context, id string) (*models.PromotionDecision, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: 404, Message: "Decision not found"}
		},
	}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/promotions/decisions/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
