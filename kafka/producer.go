package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Topics names the decision output topics.
type Topics struct {
	Exposure     string
	Explanations string
	Review       string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DecisionProducer publishes engine output to Kafka, keyed by product id.
type DecisionProducer struct {
	writer messageWriter
	topics Topics
	logger *zap.Logger
}

// NewDecisionProducer creates a producer writing to the given brokers. The
// writer has no default topic; every message names its own.
func NewDecisionProducer(brokers []string, topics Topics, logger *zap.Logger) *DecisionProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka decision producer initialized",
		zap.Strings("brokers", brokers),
		zap.String("exposure_topic", topics.Exposure),
		zap.String("explanations_topic", topics.Explanations),
		zap.String("review_topic", topics.Review),
	)
	return &DecisionProducer{writer: w, topics: topics, logger: logger}
}

func (p *DecisionProducer) PublishExposure(ctx context.Context, payload *models.ExposurePayload) error {
	return p.publishJSON(ctx, p.topics.Exposure, payload.ProductID, payload)
}

func (p *DecisionProducer) PublishExplanation(ctx context.Context, payload *models.ExplanationPayload) error {
	return p.publishJSON(ctx, p.topics.Explanations, payload.ProductID, payload)
}

func (p *DecisionProducer) PublishReview(ctx context.Context, payload *models.ReviewPayload) error {
	return p.publishJSON(ctx, p.topics.Review, payload.ProductID, payload)
}

// Publish writes a raw message to topic.
func (p *DecisionProducer) Publish(ctx context.Context, topic string, key, message []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: message,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s failed: %w", topic, err)
	}
	return nil
}

// PublishBatch writes messages to topic in a single write.
func (p *DecisionProducer) PublishBatch(ctx context.Context, topic string, messages [][]byte) error {
	if len(messages) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, kafka.Message{Topic: topic, Value: m})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka batch publish of %d messages to %s failed: %w", len(msgs), topic, err)
	}
	return nil
}

func (p *DecisionProducer) publishJSON(ctx context.Context, topic, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	if err := p.Publish(ctx, topic, []byte(key), data); err != nil {
		return err
	}
	p.logger.Debug("Published decision payload", zap.String("topic", topic), zap.String("product_id", key))
	return nil
}

func (p *DecisionProducer) Close() error {
	p.logger.Info("Closing Kafka decision producer")
	return p.writer.Close()
}
