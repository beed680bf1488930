// Package report aggregates replay run counters, PnL snapshots,
// invariant diagnostics, and reproducibility signatures.
package report

import (
	"encoding/json"

	"quant-replayv1/internal/model"
)

// Performance is the deterministic-mode performance view: totals, max
// drawdown of cumulative PnL in order-event order, and terminal status
// counts.
type Performance struct {
	TotalRealizedPnL   float64          `json:"total_realized_pnl"`
	TotalUnrealizedPnL float64          `json:"total_unrealized_pnl"`
	TotalPnL           float64          `json:"total_pnl"`
	MaxDrawdown        float64          `json:"max_drawdown"`
	OrderStatusCounts  map[string]int64 `json:"order_status_counts"`
}

// Report is the full result of one replay run. Equal configuration and
// equal data must always yield a byte-identical report.
type Report struct {
	TicksRead            int64            `json:"ticks_read"`
	BarsEmitted          int64            `json:"bars_emitted"`
	IntentsProcessed     int64            `json:"intents_processed"`
	OrderEventsEmitted   int64            `json:"order_events_emitted"`
	RolloverEvents       int64            `json:"rollover_events"`
	RolloverActions      int64            `json:"rollover_actions"`
	RolloverSlippageCost float64          `json:"rollover_slippage_cost"`
	WALRecords           int64            `json:"wal_records"`
	BarsByInstrument     map[string]int64 `json:"bars_by_instrument"`
	Positions            []model.Position `json:"positions"`
	TotalRealizedPnL     float64          `json:"total_realized_pnl"`
	TotalUnrealizedPnL   float64          `json:"total_unrealized_pnl"`
	Violations           []string         `json:"violations"`
	InputSignature       string           `json:"input_signature"`
	DataSignature        string           `json:"data_signature"`
	Performance          *Performance     `json:"performance,omitempty"`
}

// JSON returns the indented JSON encoding of the report.
func (r *Report) JSON() []byte {
	j, _ := json.MarshalIndent(r, "", "  ")
	return j
}

// CompactJSON returns the single-line JSON encoding used for publishing.
func (r *Report) CompactJSON() []byte {
	j, _ := json.Marshal(r)
	return j
}
