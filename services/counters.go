package services

import "sync/atomic"

// EngineCounters are running totals for observability. Decision logic never
// reads them.
type EngineCounters struct {
	processed atomic.Int64
	bogo      atomic.Int64
	discount  atomic.Int64
	skipped   atomic.Int64
}

// CountersSnapshot is a point-in-time copy of EngineCounters.
type CountersSnapshot struct {
	Processed int64   `json:"total_processed"`
	BOGO      int64   `json:"bogo_selected"`
	Discount  int64   `json:"discount_selected"`
	Skipped   int64   `json:"skipped"`
	SkipRate  float64 `json:"skip_rate"`
}

func (c *EngineCounters) IncProcessed() { c.processed.Add(1) }
func (c *EngineCounters) IncBOGO()      { c.bogo.Add(1) }
func (c *EngineCounters) IncDiscount()  { c.discount.Add(1) }
func (c *EngineCounters) IncSkipped()   { c.skipped.Add(1) }

// Snapshot returns the current totals.
func (c *EngineCounters) Snapshot() CountersSnapshot {
	s := CountersSnapshot{
		Processed: c.processed.Load(),
		BOGO:      c.bogo.Load(),
		Discount:  c.discount.Load(),
		Skipped:   c.skipped.Load(),
	}
	if s.Processed > 0 {
		s.SkipRate = round(float64(s.Skipped)/float64(s.Processed), 4)
	}
	return s
}
