package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ExposureChannel is the Redis pub/sub channel shared by all replicas.
const ExposureChannel = "promotions:exposure"

// RedisRelay publishes exposures to Redis and feeds every message on the
// channel, including its own, into the local hub.
type RedisRelay struct {
	redis  redis.UniversalClient
	hub    *Hub
	logger *zap.Logger
}

// NewRedisRelay creates a RedisRelay.
func NewRedisRelay(rdb redis.UniversalClient, hub *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{redis: rdb, hub: hub, logger: logger}
}

// Deliver publishes the exposure to the shared channel.
func (r *RedisRelay) Deliver(ctx context.Context, exposure *models.ExposurePayload) error {
	data, err := json.Marshal(exposure)
	if err != nil {
		return fmt.Errorf("marshal exposure: %w", err)
	}
	if err := r.redis.Publish(ctx, ExposureChannel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", ExposureChannel, err)
	}
	return nil
}

// Run forwards channel messages to the hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.redis.Subscribe(ctx, ExposureChannel)
	defer sub.Close()

	r.logger.Info("Redis exposure relay started", zap.String("channel", ExposureChannel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Redis exposure relay stopping")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.forward(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) forward(ctx context.Context, payload string) {
	var exposure models.ExposurePayload
	if err := json.Unmarshal([]byte(payload), &exposure); err != nil {
		r.logger.Warn("Invalid exposure on relay channel", zap.Error(err))
		return
	}
	_ = r.hub.Deliver(ctx, &exposure)
}
