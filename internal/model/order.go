package model

import "encoding/json"

// Side represents trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Offset represents the position effect of an intent.
type Offset string

const (
	OffsetOpen  Offset = "OPEN"
	OffsetClose Offset = "CLOSE"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusNew        OrderStatus = "NEW"
	StatusAccepted   OrderStatus = "ACCEPTED"
	StatusPartFilled OrderStatus = "PART_FILLED"
	StatusFilled     OrderStatus = "FILLED"
	StatusCanceled   OrderStatus = "CANCELED"
	StatusRejected   OrderStatus = "REJECTED"
)

// Intent is a strategy's request to trade, prior to order-id assignment.
type Intent struct {
	StrategyID   string  `json:"strategy_id"`
	InstrumentID string  `json:"instrument_id"`
	Side         Side    `json:"side"`
	Offset       Offset  `json:"offset"`
	Volume       int64   `json:"volume"`
	LimitPrice   float64 `json:"limit_price"` // 0 = at bar close
	TimestampNS  int64   `json:"timestamp_ns"`
	TraceID      string  `json:"trace_id"`
}

// SignedVolume converts side+volume into a signed quantity
// (positive = buy/long, negative = sell/short).
func (i *Intent) SignedVolume() int64 {
	if i.Side == SideSell {
		return -i.Volume
	}
	return i.Volume
}

// OrderEvent is an immutable record of an order state transition emitted
// by the execution simulator. Two are emitted per accepted intent in
// deterministic mode: ACCEPTED (zero fill) then FILLED (full fill).
type OrderEvent struct {
	AccountID    string      `json:"account_id"`
	OrderID      string      `json:"order_id"` // zero-padded, monotonic per run
	InstrumentID string      `json:"instrument_id"`
	Side         Side        `json:"side"`
	Offset       Offset      `json:"offset"`
	Status       OrderStatus `json:"status"`
	TotalVolume  int64       `json:"total_volume"`
	FilledVolume int64       `json:"filled_volume"`
	AvgFillPrice float64     `json:"avg_fill_price"`
	Reason       string      `json:"reason"`
	TimestampNS  int64       `json:"timestamp_ns"`
	TraceID      string      `json:"trace_id"` // links back to the intent
}

// Terminal reports whether the status is a terminal order state.
func (e *OrderEvent) Terminal() bool {
	switch e.Status {
	case StatusFilled, StatusCanceled, StatusRejected:
		return true
	}
	return false
}

// JSON returns the JSON-encoded event.
func (e *OrderEvent) JSON() []byte {
	j, _ := json.Marshal(e)
	return j
}
