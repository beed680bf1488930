package model

// Position represents per-instrument ledger state: net signed quantity
// (positive = long), weighted-average open price, and cumulative realized
// PnL. Unrealized PnL is always derived on demand, never stored.
type Position struct {
	InstrumentID string  `json:"instrument_id"`
	Qty          int64   `json:"qty"`       // positive = long, negative = short
	AvgPrice     float64 `json:"avg_price"` // weighted-average open price
	RealizedPnL  float64 `json:"realized_pnl"`
	LastPrice    float64 `json:"last_price"` // default mark: last fill price
}

// UnrealizedPnL computes mark-to-market profit on the open quantity.
// Longs profit when mark > avg; the sign of Qty mirrors it for shorts.
func (p *Position) UnrealizedPnL(mark float64) float64 {
	if p.Qty == 0 {
		return 0
	}
	return (mark - p.AvgPrice) * float64(p.Qty)
}
