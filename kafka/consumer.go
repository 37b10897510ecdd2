package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// EventDispatcher accepts decoded product events for background processing.
type EventDispatcher interface {
	Dispatch(ctx context.Context, raw models.RawProductEvent) bool
}

// ProductEventConsumer reads product events from one or more topics and
// hands them to a dispatcher.
type ProductEventConsumer struct {
	readers    map[string]messageReader
	dispatcher EventDispatcher
	logger     *zap.Logger
}

// NewProductEventConsumer creates a consumer group reader per topic.
func NewProductEventConsumer(brokers []string, groupID string, topics []string, dispatcher EventDispatcher, logger *zap.Logger) *ProductEventConsumer {
	readers := make(map[string]messageReader, len(topics))
	for _, topic := range topics {
		readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		})
	}
	return &ProductEventConsumer{readers: readers, dispatcher: dispatcher, logger: logger}
}

// Run consumes every topic until ctx is cancelled, then closes the readers.
func (c *ProductEventConsumer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for topic, r := range c.readers {
		wg.Add(1)
		go func(topic string, r messageReader) {
			defer wg.Done()
			c.consume(ctx, topic, r)
		}(topic, r)
	}
	wg.Wait()
}

func (c *ProductEventConsumer) consume(ctx context.Context, topic string, r messageReader) {
	c.logger.Info("Kafka consumer started", zap.String("topic", topic))
	defer func() {
		if err := r.Close(); err != nil {
			c.logger.Warn("Failed to close Kafka reader", zap.String("topic", topic), zap.Error(err))
		}
	}()

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Kafka consumer stopping", zap.String("topic", topic))
				return
			}
			c.logger.Error("Failed to read message", zap.String("topic", topic), zap.Error(err))
			return
		}
		c.HandleMessage(ctx, topic, m.Value)
	}
}

// HandleMessage decodes one message and dispatches it. Malformed messages
// are logged and skipped.
func (c *ProductEventConsumer) HandleMessage(ctx context.Context, topic string, value []byte) {
	if len(value) == 0 {
		return
	}

	var raw models.RawProductEvent
	if err := json.Unmarshal(value, &raw); err != nil {
		c.logger.Warn("Invalid product event", zap.String("topic", topic), zap.Error(err))
		return
	}

	if c.dispatcher.Dispatch(ctx, raw) {
		c.logger.Debug("Dispatched product event", zap.String("topic", topic))
	}
}
