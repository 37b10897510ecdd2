package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestProducer(w *fakeWriter) *DecisionProducer {
	return &DecisionProducer{
		writer: w,
		topics: Topics{
			Exposure:     "actions.promotion_exposure",
			Explanations: "actions.explanations",
			Review:       "actions.review_queue",
		},
		logger: zap.NewNop(),
	}
}

func TestDecisionProducer_RoutesByPayload(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	ctx := context.Background()

	require.NoError(t, p.PublishExposure(ctx, &models.ExposurePayload{ID: "e1", ProductID: "p-1"}))
	require.NoError(t, p.PublishExplanation(ctx, &models.ExplanationPayload{ID: "x1", ProductID: "p-1", Type: models.ExplanationNoPromo}))
	require.NoError(t, p.PublishReview(ctx, &models.ReviewPayload{ID: "r1", ProductID: "p-2"}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "actions.promotion_exposure", w.msgs[0].Topic)
	assert.Equal(t, "actions.explanations", w.msgs[1].Topic)
	assert.Equal(t, "actions.review_queue", w.msgs[2].Topic)
	assert.Equal(t, []byte("p-2"), w.msgs[2].Key)

	var explanation map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &explanation))
	assert.Equal(t, "NO_PROMO", explanation["type"])
}

func TestDecisionProducer_WrapsWriteError(t *testing.T) {
	p := newTestProducer(&fakeWriter{err: errors.New("broker down")})

	err := p.PublishExposure(context.Background(), &models.ExposurePayload{ProductID: "p-1"})
	assert.ErrorContains(t, err, "kafka publish to actions.promotion_exposure failed")
}

func TestDecisionProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	assert.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestDecisionProducer_PublishBatch(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishBatch(context.Background(), "ecommerce-transactions", [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`)}))
	require.NoError(t, p.PublishBatch(context.Background(), "ecommerce-transactions", nil))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "ecommerce-transactions", w.msgs[1].Topic)
	assert.Equal(t, []byte(`{"b":2}`), w.msgs[1].Value)

	p = newTestProducer(&fakeWriter{err: errors.New("broker down")})
	err := p.PublishBatch(context.Background(), "t", [][]byte{[]byte("x")})
	assert.ErrorContains(t, err, "batch publish of 1 messages")
}
