// Package strategy defines the driver interface the replay engine calls.
//
// A Driver receives finalized bars and ledger snapshots and returns trade
// intents. The engine calls every method synchronously and in stream
// order; a driver must never be called from more than one goroutine.
package strategy

import (
	"context"

	"quant-replayv1/internal/model"
)

// Snapshot is the ledger view handed to OnState after each bar's fills
// have been applied.
type Snapshot struct {
	TimestampNS   int64            `json:"timestamp_ns"`
	Positions     []model.Position `json:"positions"`
	RealizedPnL   float64          `json:"realized_pnl"`
	UnrealizedPnL float64          `json:"unrealized_pnl"`
}

// Driver is the interface all replay strategies implement. The engine
// treats it as a black box: nothing is assumed about internal state
// beyond what these calls return.
type Driver interface {
	// Name returns the strategy identifier stamped onto intents.
	Name() string

	// OnBar is called with the bars finalized by the current tick, in
	// emission order. Returned intents are executed in order.
	OnBar(ctx context.Context, bars []model.Bar) []model.Intent

	// OnState is called with a ledger snapshot after the bar's fills
	// settle. Returned intents are executed in the same cycle.
	OnState(ctx context.Context, snap Snapshot) []model.Intent

	// OnOrderEvent is called for every order event the simulator emits.
	OnOrderEvent(ctx context.Context, event model.OrderEvent)
}
