package wal

import (
	"quant-replayv1/internal/model"
)

// Record kinds. Accepted order events are "order" records, terminal fills
// are "trade" records, synthetic rollover actions are "rollover" records.
const (
	KindOrder    = "order"
	KindTrade    = "trade"
	KindRollover = "rollover"
)

// Record is one append-only WAL entry, serialized as a single compact
// JSON line. Seq starts at 1 and increases strictly by one; records are
// never rewritten or deleted.
type Record struct {
	Seq          int64   `json:"seq"`
	Kind         string  `json:"kind"`
	TimestampNS  int64   `json:"ts_ns"`
	AccountID    string  `json:"account_id,omitempty"`
	OrderID      string  `json:"order_id,omitempty"`
	InstrumentID string  `json:"instrument_id"`
	Status       string  `json:"status,omitempty"`
	TotalVolume  int64   `json:"total_volume,omitempty"`
	FilledVolume int64   `json:"filled_volume,omitempty"`
	AvgFillPrice float64 `json:"avg_fill_price,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	TraceID      string  `json:"trace_id,omitempty"`

	// Rollover-only fields.
	FromInstrument string  `json:"from_instrument,omitempty"`
	ToInstrument   string  `json:"to_instrument,omitempty"`
	RolloverMode   string  `json:"rollover_mode,omitempty"`
	PricePolicy    string  `json:"price_policy,omitempty"`
	Action         string  `json:"action,omitempty"`
	SlippageCost   float64 `json:"slippage_cost,omitempty"`
}

// FromOrderEvent converts an order event into a WAL record. Accepted
// events become "order" records; everything else is a "trade" record.
func FromOrderEvent(ev model.OrderEvent) Record {
	kind := KindTrade
	if ev.Status == model.StatusNew || ev.Status == model.StatusAccepted {
		kind = KindOrder
	}
	return Record{
		Kind:         kind,
		TimestampNS:  ev.TimestampNS,
		AccountID:    ev.AccountID,
		OrderID:      ev.OrderID,
		InstrumentID: ev.InstrumentID,
		Status:       string(ev.Status),
		TotalVolume:  ev.TotalVolume,
		FilledVolume: ev.FilledVolume,
		AvgFillPrice: ev.AvgFillPrice,
		Reason:       ev.Reason,
		TraceID:      ev.TraceID,
	}
}

// FromRolloverAction converts one rollover action into a WAL record. Each
// action of a rollover event is its own record so WAL counts stay equal
// to events emitted.
func FromRolloverAction(ev model.RolloverEvent, action model.RolloverAction) Record {
	return Record{
		Kind:           KindRollover,
		TimestampNS:    ev.TimestampNS,
		InstrumentID:   ev.ToInstrument,
		FromInstrument: ev.FromInstrument,
		ToInstrument:   ev.ToInstrument,
		RolloverMode:   string(ev.Mode),
		PricePolicy:    string(ev.PricePolicy),
		Action:         string(action),
		AvgFillPrice:   ev.ReferencePrice,
		SlippageCost:   ev.SlippageCost,
	}
}
