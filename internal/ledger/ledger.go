// Package ledger maintains per-instrument net positions, weighted-average
// open prices, and realized PnL for one replay run.
//
// The ledger is the only mutator of position state. It is not goroutine
// safe: each replay run owns exactly one instance and applies fills in
// stream order.
package ledger

import (
	"fmt"
	"math"
	"sort"

	"quant-replayv1/internal/model"
)

// tolerance bounds floating-point drift when checking the flat-position
// invariants.
const tolerance = 1e-9

// Ledger tracks position state per instrument.
type Ledger struct {
	positions map[string]*model.Position
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{positions: make(map[string]*model.Position)}
}

// ApplyFill applies one fill to the instrument's position and returns the
// realized PnL of the fill. signedQty is positive for buys, negative for
// sells.
//
// Adding to the same side re-weights the average open price. Reducing
// realizes (price − avg) × closedQty against the existing average,
// sign-mirrored for short closes. A fill larger than the open position
// flips it: the remainder opens the opposite side at the fill price.
// Reaching exactly flat resets the average price to zero.
func (l *Ledger) ApplyFill(instrumentID string, signedQty int64, price float64) float64 {
	if signedQty == 0 {
		return 0
	}
	pos, ok := l.positions[instrumentID]
	if !ok {
		pos = &model.Position{InstrumentID: instrumentID}
		l.positions[instrumentID] = pos
	}
	pos.LastPrice = price

	if pos.Qty == 0 || sameSign(pos.Qty, signedQty) {
		oldAbs := abs64(pos.Qty)
		addAbs := abs64(signedQty)
		pos.AvgPrice = (pos.AvgPrice*float64(oldAbs) + price*float64(addAbs)) / float64(oldAbs+addAbs)
		pos.Qty += signedQty
		return 0
	}

	// Reducing or flipping.
	posAbs := abs64(pos.Qty)
	addAbs := abs64(signedQty)
	closed := posAbs
	if addAbs < posAbs {
		closed = addAbs
	}

	direction := float64(1)
	if pos.Qty < 0 {
		direction = -1
	}
	realized := (price - pos.AvgPrice) * float64(closed) * direction
	pos.RealizedPnL += realized

	pos.Qty += signedQty
	switch {
	case pos.Qty == 0:
		pos.AvgPrice = 0
	case addAbs > posAbs:
		// Flipped: the remainder opened the opposite side at the fill price.
		pos.AvgPrice = price
	}
	return realized
}

// Transfer moves the open quantity and average price from one instrument
// identity to another, leaving realized PnL attached to the source.
// Used by carry-mode rollovers; a no-op when the source is flat.
func (l *Ledger) Transfer(fromID, toID string) {
	from, ok := l.positions[fromID]
	if !ok || from.Qty == 0 {
		return
	}
	to, ok := l.positions[toID]
	if !ok {
		to = &model.Position{InstrumentID: toID}
		l.positions[toID] = to
	}
	to.Qty = from.Qty
	to.AvgPrice = from.AvgPrice
	to.LastPrice = from.LastPrice
	from.Qty = 0
	from.AvgPrice = 0
}

// Position returns a copy of the instrument's position state.
func (l *Ledger) Position(instrumentID string) model.Position {
	if pos, ok := l.positions[instrumentID]; ok {
		return *pos
	}
	return model.Position{InstrumentID: instrumentID}
}

// Positions returns a snapshot of all tracked positions, ordered by
// instrument id for deterministic reports.
func (l *Ledger) Positions() []model.Position {
	ids := l.sortedIDs()
	out := make([]model.Position, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.positions[id])
	}
	return out
}

// MarkPrice returns the default mark for an instrument: its last fill
// price, or 0 if the instrument never filled.
func (l *Ledger) MarkPrice(instrumentID string) float64 {
	if pos, ok := l.positions[instrumentID]; ok {
		return pos.LastPrice
	}
	return 0
}

// TotalRealizedPnL sums realized PnL across instruments. Summation runs
// in sorted instrument order: float addition is not associative, so map
// iteration order would leak into the totals.
func (l *Ledger) TotalRealizedPnL() float64 {
	var total float64
	for _, id := range l.sortedIDs() {
		total += l.positions[id].RealizedPnL
	}
	return total
}

// TotalUnrealizedPnL sums unrealized PnL across instruments, marking each
// at its last fill price. Sorted order, same as TotalRealizedPnL.
func (l *Ledger) TotalUnrealizedPnL() float64 {
	var total float64
	for _, id := range l.sortedIDs() {
		pos := l.positions[id]
		total += pos.UnrealizedPnL(pos.LastPrice)
	}
	return total
}

// Validate checks the accounting invariants for every instrument and
// returns human-readable violations. Violations never abort a run: a
// flagged backtest is still a reported backtest.
//
// Invariants: flat ⇒ avg price and unrealized PnL are zero (within
// tolerance); non-flat ⇒ avg price strictly positive.
func (l *Ledger) Validate() []string {
	ids := l.sortedIDs()

	var violations []string
	for _, id := range ids {
		pos := l.positions[id]
		if pos.Qty == 0 {
			if math.Abs(pos.AvgPrice) > tolerance {
				violations = append(violations, fmt.Sprintf(
					"%s: flat position has nonzero avg price %.10f", id, pos.AvgPrice))
			}
			if u := pos.UnrealizedPnL(pos.LastPrice); math.Abs(u) > tolerance {
				violations = append(violations, fmt.Sprintf(
					"%s: flat position has nonzero unrealized pnl %.10f", id, u))
			}
			continue
		}
		if pos.AvgPrice <= 0 {
			violations = append(violations, fmt.Sprintf(
				"%s: open position qty=%d has non-positive avg price %.10f", id, pos.Qty, pos.AvgPrice))
		}
	}
	return violations
}

func (l *Ledger) sortedIDs() []string {
	ids := make([]string, 0, len(l.positions))
	for id := range l.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
