package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// GaugeRecorder publishes point-in-time values.
type GaugeRecorder interface {
	RecordGauges(ctx context.Context, values map[string]float64, dimensions map[string]string) error
}

// Gauge names exported from the engine counters.
const (
	GaugeTotalProcessed   = "EngineTotalProcessed"
	GaugeBOGOSelected     = "EngineBOGOSelected"
	GaugeDiscountSelected = "EngineDiscountSelected"
	GaugeSkipped          = "EngineSkipped"
	GaugeSkipRate         = "EngineSkipRate"
)

// Gauges converts the snapshot into exported gauge values.
func (s CountersSnapshot) Gauges() map[string]float64 {
	return map[string]float64{
		GaugeTotalProcessed:   float64(s.Processed),
		GaugeBOGOSelected:     float64(s.BOGO),
		GaugeDiscountSelected: float64(s.Discount),
		GaugeSkipped:          float64(s.Skipped),
		GaugeSkipRate:         s.SkipRate,
	}
}

// ExportCounters publishes a counters snapshot every interval until ctx is
// cancelled, then publishes one final snapshot.
func ExportCounters(ctx context.Context, counters *EngineCounters, rec GaugeRecorder, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	dims := map[string]string{"Service": metricServiceDimension}
	export := func(ctx context.Context) {
		if err := rec.RecordGauges(ctx, counters.Snapshot().Gauges(), dims); err != nil {
			logger.Warn("Engine counter export failed", zap.Error(err))
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricRecordTimeout)
			export(final)
			cancel()
			return
		case <-ticker.C:
			export(ctx)
		}
	}
}
