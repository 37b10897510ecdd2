package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/SujaySAK777/StreamIQ/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// recordingPublisher captures everything the agent publishes.
type recordingPublisher struct {
	mu           sync.Mutex
	exposures    []*models.ExposurePayload
	explanations []*models.ExplanationPayload
	reviews      []*models.ReviewPayload
	err          error
	panicOn      string
}

func (p *recordingPublisher) PublishExposure(_ context.Context, payload *models.ExposurePayload) error {
	if p.panicOn == "exposure" {
		panic("broker exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exposures = append(p.exposures, payload)
	return p.err
}

func (p *recordingPublisher) PublishExplanation(_ context.Context, payload *models.ExplanationPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.explanations = append(p.explanations, payload)
	return p.err
}

func (p *recordingPublisher) PublishReview(_ context.Context, payload *models.ReviewPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reviews = append(p.reviews, payload)
	return p.err
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []*models.PromotionDecision
	err     error
}

func (r *recordingRecorder) Record(_ context.Context, record *models.PromotionDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return r.err
}

type recordingSink struct {
	mu        sync.Mutex
	delivered []*models.ExposurePayload
	err       error
}

func (s *recordingSink) Deliver(_ context.Context, payload *models.ExposurePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, payload)
	return s.err
}

type recordingMetrics struct {
	mu    sync.Mutex
	names []string
}

func (m *recordingMetrics) RecordCount(_ context.Context, name string, dims map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dims["Service"] == "promotion-agent" {
		m.names = append(m.names, name)
	}
	return nil
}

func (m *recordingMetrics) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type agentFixture struct {
	agent     *services.PromotionAgent
	publisher *recordingPublisher
	recorder  *recordingRecorder
	sink      *recordingSink
	metrics   *recordingMetrics
}

func newAgentFixture(draw services.ExplorationSource) *agentFixture {
	f := &agentFixture{
		publisher: &recordingPublisher{},
		recorder:  &recordingRecorder{},
		sink:      &recordingSink{},
		metrics:   &recordingMetrics{},
	}
	f.agent = services.NewPromotionAgent(services.DefaultEngineConfig(), services.AgentDeps{
		Publisher:   f.publisher,
		Recorder:    f.recorder,
		Sinks:       []services.ExposureSink{f.sink},
		Presenter:   services.NewTemplatePresenter(1),
		Exploration: draw,
		Metrics:     f.metrics,
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return fixedNow },
	})
	return f
}

func TestProcessEvent_SkipsLowUplift(t *testing.T) {
	f := newAgentFixture(services.FixedDraw(1))
	raw := scenarioB()

	d := f.agent.ProcessEvent(context.Background(), raw)

	require.NotNil(t, d)
	assert.Equal(t, models.OutcomeSkipped, d.Outcome)
	assert.Nil(t, d.Candidate)
	assert.Empty(t, d.Evaluated)
	assert.Empty(t, f.publisher.exposures)

	require.Len(t, f.publisher.explanations, 1)
	exp := f.publisher.explanations[0]
	assert.Equal(t, models.ExplanationNoPromo, exp.Type)
	assert.Equal(t, models.ReasonUpliftBelowThreshold, exp.Reason)
	assert.Equal(t, raw, exp.Input)
	require.NotNil(t, exp.UpliftScore)
	assert.InDelta(t, 0.275, *exp.UpliftScore, 1e-9)

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, models.OutcomeSkipped, f.recorder.records[0].Outcome)
	assert.Nil(t, f.recorder.records[0].ChosenCandidate)

	snap := f.agent.Counters().Snapshot()
	assert.Equal(t, int64(1), snap.Processed)
	assert.Equal(t, int64(1), snap.Skipped)
	assert.Equal(t, 1.0, snap.SkipRate)
}

func TestProcessEvent_ApprovesBestDiscount(t *testing.T) {
	f := newAgentFixture(services.FixedDraw(1))

	d := f.agent.ProcessEvent(context.Background(), scenarioA())

	require.NotNil(t, d)
	assert.Equal(t, models.OutcomeApproved, d.Outcome)
	assert.Equal(t, models.SelectionBestObjective, d.Reason)
	require.NotNil(t, d.Candidate)
	assert.Equal(t, models.CandidateDiscount, d.Candidate.Type)
	assert.Equal(t, 20, d.Candidate.Discount())
	assert.Equal(t, 800.0, d.Candidate.PromoCost)
	assert.Equal(t, 7265.56, d.Candidate.Objective)
	require.Len(t, d.Evaluated, 2)
	assert.Equal(t, 6065.56, d.Evaluated[1].Objective)

	require.Len(t, f.publisher.exposures, 1)
	exposure := f.publisher.exposures[0]
	assert.Equal(t, "p-a", exposure.ProductID)
	assert.Equal(t, "Scenario A", exposure.ProductName)
	assert.Equal(t, "20% OFF", exposure.UI.PromotionLabel)
	assert.Equal(t, 48, exposure.UI.DurationHours)
	assert.Equal(t, 8065.56, exposure.ExpectedIncRevenue)
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), exposure.CreatedAt)
	assert.Len(t, exposure.TopDrivers, 3)
	assert.Same(t, exposure, d.Exposure)

	require.Len(t, f.publisher.explanations, 1)
	exp := f.publisher.explanations[0]
	assert.Equal(t, models.ExplanationDecision, exp.Type)
	assert.Equal(t, models.ReasonSelectedBest, exp.Reason)
	input, ok := exp.Input.(models.ExplanationInput)
	require.True(t, ok)
	assert.Len(t, input.Evaluated, 2)
	assert.Equal(t, d.Candidate.ID, exp.Selected.ID)

	require.Len(t, f.sink.delivered, 1)
	assert.Same(t, exposure, f.sink.delivered[0])

	require.Len(t, f.recorder.records, 1)
	record := f.recorder.records[0]
	assert.Equal(t, uuid.MustParse(d.ID), record.DecisionID)
	assert.Equal(t, models.OutcomeApproved, record.Outcome)
	assert.Contains(t, string(record.ChosenCandidate), `"type":"discount"`)
	assert.Contains(t, string(record.Presentation), `"rationale"`)
	assert.Equal(t, fixedNow, record.CreatedAt)

	assert.Equal(t, int64(1), f.agent.Counters().Snapshot().Discount)
	assert.Eventually(t, func() bool {
		return f.metrics.has(services.MetricApproved) && f.metrics.has(services.MetricEventsProcessed)
	}, time.Second, 10*time.Millisecond)
}

func TestProcessEvent_ExplorationPicksBOGO(t *testing.T) {
	f := newAgentFixture(services.FixedDraw(0))

	d := f.agent.ProcessEvent(context.Background(), scenarioA())

	require.NotNil(t, d)
	assert.Equal(t, models.OutcomeApproved, d.Outcome)
	assert.Equal(t, models.CandidateBOGO, d.Candidate.Type)
	assert.Equal(t, models.SelectionExploration, d.Reason)
	assert.Equal(t, "BOGO", d.Exposure.UI.PromotionLabel)
	assert.Equal(t, int64(1), f.agent.Counters().Snapshot().BOGO)
}

func TestProcessEvent_RoutesExpensiveToReview(t *testing.T) {
	f := newAgentFixture(services.FixedDraw(1))
	raw := scenarioA()
	raw["price"] = 10000.0

	d := f.agent.ProcessEvent(context.Background(), raw)

	require.NotNil(t, d)
	assert.Equal(t, models.OutcomeReview, d.Outcome)
	assert.Equal(t, 80000.0, d.Candidate.PromoCost)
	assert.Nil(t, d.Exposure)

	require.Len(t, f.publisher.reviews, 1)
	assert.Equal(t, d.Candidate.ID, f.publisher.reviews[0].Candidate.ID)
	assert.Empty(t, f.publisher.exposures)
	assert.Empty(t, f.publisher.explanations)
	assert.Empty(t, f.sink.delivered)

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, models.OutcomeReview, f.recorder.records[0].Outcome)
}

func TestProcessEvent_SideEffectFailuresAreNonFatal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	publisher := &recordingPublisher{err: errors.New("kafka unavailable")}
	recorder := &recordingRecorder{err: errors.New("db unavailable")}
	sink := &recordingSink{err: errors.New("sns unavailable")}

	agent := services.NewPromotionAgent(services.DefaultEngineConfig(), services.AgentDeps{
		Publisher:   publisher,
		Recorder:    recorder,
		Sinks:       []services.ExposureSink{sink},
		Exploration: services.FixedDraw(1),
		Logger:      zap.New(core),
	})

	d := agent.ProcessEvent(context.Background(), scenarioA())

	require.NotNil(t, d)
	assert.Equal(t, models.OutcomeApproved, d.Outcome)
	assert.Equal(t, 1, logs.FilterMessage("Failed to publish promotion exposure").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to publish explanation").Len())
	assert.Equal(t, 1, logs.FilterMessage("Exposure sink delivery failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to persist promotion decision (non-fatal)").Len())
}

func TestProcessEvent_RecoversFromPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	agent := services.NewPromotionAgent(services.DefaultEngineConfig(), services.AgentDeps{
		Publisher:   &recordingPublisher{panicOn: "exposure"},
		Exploration: services.FixedDraw(1),
		Logger:      zap.New(core),
	})

	d := agent.ProcessEvent(context.Background(), scenarioA())

	assert.Nil(t, d)
	assert.Equal(t, 1, logs.FilterMessage("PromotionAgent processing failed").Len())
	assert.Equal(t, int64(1), agent.Counters().Snapshot().Processed)
}

func TestProcessEvent_NoCollaborators(t *testing.T) {
	agent := services.NewPromotionAgent(services.DefaultEngineConfig(), services.AgentDeps{Exploration: services.FixedDraw(1)})

	d := agent.ProcessEvent(context.Background(), scenarioA())

	require.NotNil(t, d)
	assert.Equal(t, models.OutcomeApproved, d.Outcome)
	assert.NotEmpty(t, d.Exposure.UI.Headline)
}

func TestProcessEvent_DeterministicForFixedDraw(t *testing.T) {
	a := newAgentFixture(services.FixedDraw(1)).agent.ProcessEvent(context.Background(), scenarioA())
	b := newAgentFixture(services.FixedDraw(1)).agent.ProcessEvent(context.Background(), scenarioA())

	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Outcome, b.Outcome)
	assert.Equal(t, a.Reason, b.Reason)
	assert.Equal(t, a.Uplift, b.Uplift)
	assert.Equal(t, a.TopDrivers, b.TopDrivers)
	assert.Equal(t, a.Candidate.Type, b.Candidate.Type)
	assert.Equal(t, a.Candidate.Objective, b.Candidate.Objective)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestProcessEvent_Concurrent(t *testing.T) {
	f := newAgentFixture(services.NewSeededExploration(9))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := scenarioA()
			if i%2 == 0 {
				raw = scenarioB()
			}
			assert.NotNil(t, f.agent.ProcessEvent(context.Background(), raw))
		}(i)
	}
	wg.Wait()

	snap := f.agent.Counters().Snapshot()
	assert.Equal(t, int64(40), snap.Processed)
	assert.Equal(t, int64(20), snap.Skipped)
	assert.Equal(t, int64(20), snap.BOGO+snap.Discount)
	assert.Len(t, f.recorder.records, 40)
	assert.Len(t, f.sink.delivered, 20)
}
