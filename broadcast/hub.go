package broadcast

import (
	"context"
	"sync"

	"github.com/SujaySAK777/StreamIQ/models"
	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Hub fans approved exposures out to connected UI clients. Slow clients
// miss exposures rather than block delivery.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan *models.ExposurePayload]struct{}
	logger *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan *models.ExposurePayload]struct{}),
		logger: logger,
	}
}

// Subscribe registers a client. The returned cancel func must be called
// when the client goes away; it closes the channel.
func (h *Hub) Subscribe() (<-chan *models.ExposurePayload, func()) {
	ch := make(chan *models.ExposurePayload, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Deliver pushes the exposure to every subscriber.
func (h *Hub) Deliver(_ context.Context, exposure *models.ExposurePayload) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- exposure:
		default:
			h.logger.Debug("Dropping exposure for slow subscriber", zap.String("exposure_id", exposure.ID))
		}
	}
	return nil
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
