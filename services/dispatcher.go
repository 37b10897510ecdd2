package services

import (
	"context"
	"sync"
	"time"

	"github.com/SujaySAK777/StreamIQ/models"
	"go.uber.org/zap"
)

// EventProcessor runs the engine on one raw event.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, raw models.RawProductEvent) *models.Decision
}

// Dispatcher hands ingested events to the engine without waiting for the
// decision. At most maxInFlight events are processed at once; Dispatch
// blocks while the limit is reached.
type Dispatcher struct {
	processor EventProcessor
	sem       chan struct{}
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(processor EventProcessor, maxInFlight int, logger *zap.Logger) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	return &Dispatcher{
		processor: processor,
		sem:       make(chan struct{}, maxInFlight),
		logger:    logger,
	}
}

// Dispatch applies the ingest pre-filter and, if the event qualifies, starts
// processing it in the background. It returns false when the event was
// filtered out or ctx was cancelled while waiting for a slot.
func (d *Dispatcher) Dispatch(ctx context.Context, raw models.RawProductEvent) bool {
	if !NeedsPromotion(NormalizeEvent(raw)) {
		return false
	}

	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	d.wg.Add(1)
	go func() {
		defer func() {
			<-d.sem
			d.wg.Done()
		}()
		// processing outlives the ingest loop so in-flight work can drain
		d.processor.ProcessEvent(context.WithoutCancel(ctx), raw)
	}()
	return true
}

// Drain waits for in-flight events to finish, up to timeout. It reports
// whether everything finished in time.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		d.logger.Warn("Timed out waiting for in-flight promotion decisions", zap.Duration("timeout", timeout))
		return false
	}
}
