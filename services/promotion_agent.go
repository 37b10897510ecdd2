package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// EngineConfig holds the tunable business parameters of the engine.
type EngineConfig struct {
	ExpectedReach         float64
	MaxDiscountPct        float64
	ManualReviewThreshold float64
	UnitMarginPct         float64
	PartnerLimit          int
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ExpectedReach:         100,
		MaxDiscountPct:        0.25,
		ManualReviewThreshold: 50000,
		UnitMarginPct:         0.25,
		PartnerLimit:          3,
	}
}

// DecisionPublisher sends decision payloads to their logical channels.
type DecisionPublisher interface {
	PublishExposure(ctx context.Context, payload *models.ExposurePayload) error
	PublishExplanation(ctx context.Context, payload *models.ExplanationPayload) error
	PublishReview(ctx context.Context, payload *models.ReviewPayload) error
}

// DecisionRecorder persists the audit record of a decision.
type DecisionRecorder interface {
	Record(ctx context.Context, record *models.PromotionDecision) error
}

// ExposureSink receives approved exposures after they are published, e.g.
// the UI broadcast hub or the SNS mirror.
type ExposureSink interface {
	Deliver(ctx context.Context, payload *models.ExposurePayload) error
}

// MetricsRecorder is the metrics surface used by the agent.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// Metric names emitted by the agent.
const (
	MetricEventsProcessed  = "PromotionEventsProcessed"
	MetricEventsSkipped    = "PromotionEventsSkipped"
	MetricNoCandidate      = "PromotionNoCandidate"
	MetricReviewRouted     = "PromotionReviewRouted"
	MetricApproved         = "PromotionApproved"
	MetricBOGOSelected     = "PromotionBOGOSelected"
	MetricDiscountSelected = "PromotionDiscountSelected"
	metricServiceDimension = "promotion-agent"
	metricRecordTimeout    = 5 * time.Second
)

// AgentDeps are the collaborators of a PromotionAgent. Every field is
// optional; missing collaborators turn the matching side effect into a no-op.
type AgentDeps struct {
	Publisher   DecisionPublisher
	Recorder    DecisionRecorder
	Sinks       []ExposureSink
	Partners    PartnerLookup
	Presenter   Presenter
	Exploration ExplorationSource
	Metrics     MetricsRecorder
	Logger      *zap.Logger
	Now         func() time.Time
}

// PromotionAgent runs the promotion decision pipeline for one event at a
// time and is safe for concurrent use.
type PromotionAgent struct {
	cfg       EngineConfig
	resolver  *PartnerResolver
	evaluator *Evaluator
	rules     *RuleFilter
	selector  *Selector
	gate      *ReviewGate
	counters  *EngineCounters

	publisher DecisionPublisher
	recorder  DecisionRecorder
	sinks     []ExposureSink
	presenter Presenter
	metrics   MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewPromotionAgent creates a PromotionAgent.
func NewPromotionAgent(cfg EngineConfig, deps AgentDeps) *PromotionAgent {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	presenter := deps.Presenter
	if presenter == nil {
		presenter = NewTemplatePresenter(uint64(time.Now().UnixNano()))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &PromotionAgent{
		cfg:       cfg,
		resolver:  NewPartnerResolver(deps.Partners, cfg.PartnerLimit, logger),
		evaluator: NewEvaluator(cfg),
		rules:     NewRuleFilter(cfg),
		selector:  NewSelector(deps.Exploration),
		gate:      NewReviewGate(cfg),
		counters:  &EngineCounters{},
		publisher: deps.Publisher,
		recorder:  deps.Recorder,
		sinks:     deps.Sinks,
		presenter: presenter,
		metrics:   deps.Metrics,
		logger:    logger,
		now:       now,
	}
}

// Counters exposes the agent's running totals.
func (a *PromotionAgent) Counters() *EngineCounters { return a.counters }

// ProcessEvent decides whether and how to promote the product in raw. It
// returns nil when the event could not be processed; that failure is logged
// and never propagated to the caller.
func (a *PromotionAgent) ProcessEvent(ctx context.Context, raw models.RawProductEvent) (decision *models.Decision) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("PromotionAgent processing failed",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			decision = nil
		}
	}()

	a.counters.IncProcessed()
	a.recordMetric(MetricEventsProcessed, nil)

	evt := NormalizeEvent(raw)
	uplift := ComputeUplift(evt)
	drivers := RankDrivers(uplift, defaultTopDrivers)

	d := &models.Decision{
		ID:         uuid.NewString(),
		ProductID:  evt.ProductID,
		Uplift:     uplift,
		TopDrivers: drivers,
	}

	a.logger.Debug("Uplift calculated",
		zap.String("product_id", evt.ProductID),
		zap.Float64("uplift", uplift.Score),
		zap.Float64("cart_abandonment", evt.CartAbandonment),
		zap.Float64("discount_applied", evt.CurrentDiscount),
	)

	if uplift.Score <= SkipUpliftThreshold {
		return a.skip(ctx, d, evt, raw)
	}

	partners := a.resolver.Resolve(ctx, evt)
	candidates := GenerateCandidates(evt, uplift.Score, partners)
	evaluated := a.evaluator.EvaluateAll(evt, uplift.Score, candidates)
	d.Evaluated = evaluated

	a.logger.Debug("Evaluated candidates",
		zap.String("product_id", evt.ProductID),
		zap.Int("partners", len(partners)),
		zap.Int("count", len(evaluated)),
	)

	passing := a.rules.Filter(evaluated)
	if len(passing) == 0 {
		return a.noCandidate(ctx, d, raw)
	}

	best, reason := a.selector.Select(passing, evt, uplift.Score)
	d.Candidate = &best
	d.Reason = reason
	if best.Type == models.CandidateBOGO {
		a.counters.IncBOGO()
		a.recordMetric(MetricBOGOSelected, nil)
	} else {
		a.counters.IncDiscount()
		a.recordMetric(MetricDiscountSelected, nil)
	}

	a.logger.Info("Promotion candidate selected",
		zap.String("product_id", evt.ProductID),
		zap.String("type", string(best.Type)),
		zap.Int("discount_pct", best.Discount()),
		zap.String("reason", string(reason)),
		zap.Float64("objective", best.Objective),
		zap.Float64("promo_cost", best.PromoCost),
	)

	if a.gate.RequiresReview(best) {
		return a.review(ctx, d, raw)
	}
	return a.approve(ctx, d, evt, raw)
}

func (a *PromotionAgent) skip(ctx context.Context, d *models.Decision, evt models.NormalizedEvent, raw models.RawProductEvent) *models.Decision {
	d.Outcome = models.OutcomeSkipped
	a.counters.IncSkipped()
	a.recordMetric(MetricEventsSkipped, nil)

	snap := a.counters.Snapshot()
	a.logger.Info("Skipped: uplift below threshold",
		zap.String("product_id", evt.ProductID),
		zap.String("name", evt.Name),
		zap.Float64("uplift", d.Uplift.Score),
		zap.Int64("skipped", snap.Skipped),
		zap.Int64("processed", snap.Processed),
	)

	score := d.Uplift.Score
	a.publishExplanation(ctx, &models.ExplanationPayload{
		ID:          uuid.NewString(),
		ProductID:   d.ProductID,
		Type:        models.ExplanationNoPromo,
		Reason:      models.ReasonUpliftBelowThreshold,
		Input:       raw,
		UpliftScore: &score,
	})
	a.persist(ctx, d, raw, nil)
	return d
}

func (a *PromotionAgent) noCandidate(ctx context.Context, d *models.Decision, raw models.RawProductEvent) *models.Decision {
	d.Outcome = models.OutcomeNoCandidate
	a.recordMetric(MetricNoCandidate, nil)
	a.logger.Info("Rejected: no candidate passed rules",
		zap.String("product_id", d.ProductID),
		zap.Float64("uplift", d.Uplift.Score),
	)

	a.publishExplanation(ctx, &models.ExplanationPayload{
		ID:        uuid.NewString(),
		ProductID: d.ProductID,
		Type:      models.ExplanationNoPromo,
		Reason:    models.ReasonNoCandidatesPassed,
		Input:     models.ExplanationInput{Event: raw, Evaluated: d.Evaluated},
	})
	a.persist(ctx, d, raw, nil)
	return d
}

func (a *PromotionAgent) review(ctx context.Context, d *models.Decision, raw models.RawProductEvent) *models.Decision {
	d.Outcome = models.OutcomeReview
	a.recordMetric(MetricReviewRouted, map[string]string{"Type": string(d.Candidate.Type)})
	a.logger.Info("Candidate exceeds manual review threshold, sending to review",
		zap.String("product_id", d.ProductID),
		zap.Float64("promo_cost", d.Candidate.PromoCost),
		zap.Float64("threshold", a.gate.Threshold),
	)

	if a.publisher != nil {
		if err := a.publisher.PublishReview(ctx, &models.ReviewPayload{
			ID:          uuid.NewString(),
			ProductID:   d.ProductID,
			Candidate:   *d.Candidate,
			UpliftScore: d.Uplift.Score,
			TopDrivers:  d.TopDrivers,
		}); err != nil {
			a.logger.Error("Failed to publish to review queue", zap.String("product_id", d.ProductID), zap.Error(err))
		}
	}
	a.persist(ctx, d, raw, nil)
	return d
}

func (a *PromotionAgent) approve(ctx context.Context, d *models.Decision, evt models.NormalizedEvent, raw models.RawProductEvent) *models.Decision {
	d.Outcome = models.OutcomeApproved
	best := *d.Candidate
	card := a.presenter.Present(ctx, evt, best, d.TopDrivers, d.Uplift.Score)

	exposure := &models.ExposurePayload{
		ID:                 uuid.NewString(),
		ProductID:          d.ProductID,
		ProductName:        evt.DisplayName(),
		Candidate:          best,
		UI:                 card,
		UpliftScore:        d.Uplift.Score,
		ExpectedIncRevenue: best.EstimatedIncRevenue,
		TopDrivers:         d.TopDrivers,
		CreatedAt:          a.now().UTC().Format(time.RFC3339Nano),
	}
	d.Exposure = exposure
	a.recordMetric(MetricApproved, map[string]string{"Type": string(best.Type)})

	a.logger.Info("Approved promotion",
		zap.String("product_id", d.ProductID),
		zap.String("name", evt.Name),
		zap.String("label", card.PromotionLabel),
		zap.Float64("expected_margin_after", best.ExpectedMarginAfter),
	)

	if a.publisher != nil {
		if err := a.publisher.PublishExposure(ctx, exposure); err != nil {
			a.logger.Error("Failed to publish promotion exposure", zap.String("product_id", d.ProductID), zap.Error(err))
		}
	}
	score := d.Uplift.Score
	a.publishExplanation(ctx, &models.ExplanationPayload{
		ID:          uuid.NewString(),
		ProductID:   d.ProductID,
		Type:        models.ExplanationDecision,
		Reason:      models.ReasonSelectedBest,
		Input:       models.ExplanationInput{Event: raw, Evaluated: d.Evaluated},
		Selected:    &best,
		UpliftScore: &score,
		TopDrivers:  d.TopDrivers,
	})
	for _, sink := range a.sinks {
		if err := sink.Deliver(ctx, exposure); err != nil {
			a.logger.Warn("Exposure sink delivery failed", zap.String("product_id", d.ProductID), zap.Error(err))
		}
	}
	a.persist(ctx, d, raw, map[string]string{"rationale": card.Rationale})
	return d
}

func (a *PromotionAgent) publishExplanation(ctx context.Context, payload *models.ExplanationPayload) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishExplanation(ctx, payload); err != nil {
		a.logger.Error("Failed to publish explanation", zap.String("product_id", payload.ProductID), zap.Error(err))
	}
}

// persist writes the audit record. Failures are logged and never affect the
// decision.
func (a *PromotionAgent) persist(ctx context.Context, d *models.Decision, raw models.RawProductEvent, presentation interface{}) {
	if a.recorder == nil {
		a.logger.Debug("Decision store unavailable, skipping decision persistence")
		return
	}

	id, err := uuid.Parse(d.ID)
	if err != nil {
		id = uuid.New()
	}
	record := &models.PromotionDecision{
		DecisionID:   id,
		ProductID:    d.ProductID,
		InputEvent:   mustJSON(raw),
		UpliftScore:  d.Uplift.Score,
		Candidates:   mustJSON(d.Evaluated),
		Presentation: mustJSON(presentation),
		Outcome:      d.Outcome,
		CreatedAt:    a.now(),
	}
	if d.Candidate != nil {
		record.ChosenCandidate = mustJSON(d.Candidate)
	}
	if err := a.recorder.Record(ctx, record); err != nil {
		a.logger.Warn("Failed to persist promotion decision (non-fatal)",
			zap.String("decision_id", d.ID),
			zap.Error(err),
		)
	}
}

func (a *PromotionAgent) recordMetric(name string, dims map[string]string) {
	if a.metrics == nil {
		return
	}
	if dims == nil {
		dims = map[string]string{}
	}
	dims["Service"] = metricServiceDimension
	go func() {
		mctx, cancel := context.WithTimeout(context.Background(), metricRecordTimeout)
		defer cancel()
		if err := a.metrics.RecordCount(mctx, name, dims); err != nil {
			a.logger.Debug("Metric record failed", zap.String("metric", name), zap.Error(err))
		}
	}()
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
