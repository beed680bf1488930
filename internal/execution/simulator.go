// Package execution simulates deterministic order execution for replay
// runs and journals the resulting fills.
//
// Every intent produces exactly two order events — ACCEPTED then FILLED —
// at a caller-chosen price. No partial fills and no rejections exist in
// this mode; those belong to the live trading path. The determinism here
// is the basis of the engine's reproducibility guarantee.
package execution

import (
	"fmt"

	"github.com/google/uuid"

	"quant-replayv1/internal/model"
)

// traceNamespace seeds deterministic v5 trace ids so two identical runs
// produce byte-identical WALs.
var traceNamespace = uuid.MustParse("8f3c1c52-9a74-4dc1-a2f6-3d2b6c1e0b7a")

// Simulator converts intents into accept+fill order event pairs. The
// order-id counter is owned by the instance; concurrent replays must use
// independent simulators.
type Simulator struct {
	accountID string
	orderSeq  int64
}

// NewSimulator creates a Simulator for one replay run.
func NewSimulator(accountID string) *Simulator {
	return &Simulator{accountID: accountID}
}

// Execute fills one intent at fillPrice and returns the ACCEPTED and
// FILLED events, sharing a freshly assigned zero-padded client order id
// and the intent's trace id.
func (s *Simulator) Execute(intent model.Intent, fillPrice float64) (model.OrderEvent, model.OrderEvent) {
	s.orderSeq++
	orderID := fmt.Sprintf("%09d", s.orderSeq)

	traceID := intent.TraceID
	if traceID == "" {
		traceID = s.traceID(intent)
	}

	accepted := model.OrderEvent{
		AccountID:    s.accountID,
		OrderID:      orderID,
		InstrumentID: intent.InstrumentID,
		Side:         intent.Side,
		Offset:       intent.Offset,
		Status:       model.StatusAccepted,
		TotalVolume:  intent.Volume,
		FilledVolume: 0,
		TimestampNS:  intent.TimestampNS,
		TraceID:      traceID,
	}

	filled := accepted
	filled.Status = model.StatusFilled
	filled.FilledVolume = intent.Volume
	filled.AvgFillPrice = fillPrice

	return accepted, filled
}

// OrdersPlaced returns the number of intents executed so far.
func (s *Simulator) OrdersPlaced() int64 {
	return s.orderSeq
}

// traceID derives a deterministic v5 UUID for an intent that arrived
// without one.
func (s *Simulator) traceID(intent model.Intent) string {
	name := fmt.Sprintf("%s|%s|%s|%d|%d|%d",
		intent.StrategyID, intent.InstrumentID, intent.Side,
		intent.Volume, intent.TimestampNS, s.orderSeq)
	return uuid.NewSHA1(traceNamespace, []byte(name)).String()
}
