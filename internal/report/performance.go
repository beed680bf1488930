package report

import "quant-replayv1/internal/model"

// PerfTracker accumulates the performance view incrementally: cumulative
// PnL is sampled after every order event, in event order, and drawdown is
// measured against the running peak.
type PerfTracker struct {
	peak         float64
	maxDrawdown  float64
	seen         bool
	statusCounts map[string]int64
}

// NewPerfTracker creates an empty tracker.
func NewPerfTracker() *PerfTracker {
	return &PerfTracker{statusCounts: make(map[string]int64)}
}

// ObserveEvent records one order event and the cumulative total PnL
// (realized + unrealized) observed right after it was applied. Terminal
// statuses are counted; every event participates in drawdown.
func (p *PerfTracker) ObserveEvent(ev model.OrderEvent, cumulativePnL float64) {
	if ev.Terminal() {
		p.statusCounts[string(ev.Status)]++
	}
	if !p.seen || cumulativePnL > p.peak {
		p.peak = cumulativePnL
		p.seen = true
	}
	if dd := p.peak - cumulativePnL; dd > p.maxDrawdown {
		p.maxDrawdown = dd
	}
}

// Build assembles the performance view from the tracker and final totals.
func (p *PerfTracker) Build(realized, unrealized float64) *Performance {
	counts := make(map[string]int64, len(p.statusCounts))
	for k, v := range p.statusCounts {
		counts[k] = v
	}
	return &Performance{
		TotalRealizedPnL:   realized,
		TotalUnrealizedPnL: unrealized,
		TotalPnL:           realized + unrealized,
		MaxDrawdown:        p.maxDrawdown,
		OrderStatusCounts:  counts,
	}
}
