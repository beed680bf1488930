// Package bars buckets an ordered tick stream into minute OHLCV bars.
//
// The aggregator is strictly sequential: ticks are pushed one at a time
// and at most one finalized bar comes back per push (the previous bucket
// of the same instrument). The bucket key is the trading day + minute of
// the *last* tick merged into the bucket; buckets close when an incoming
// tick carries a different key. This last-tick keying is load-bearing for
// report signatures and must not be "corrected" to first-tick keying.
package bars

import (
	"sort"

	"quant-replayv1/internal/model"
)

// barState holds the in-progress bar for one instrument.
type barState struct {
	key         string // day+minute key of the last tick merged
	firstVolume int64  // cumulative volume at bucket start
	lastVolume  int64
	bar         model.Bar
}

// Aggregator builds minute bars from a stream of ticks, per instrument.
type Aggregator struct {
	states map[string]*barState // key = instrument id
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{states: make(map[string]*barState)}
}

// Add incorporates one tick. If the tick opens a new minute bucket for its
// instrument, the previous bucket's finalized bar is returned.
func (a *Aggregator) Add(tick model.Tick) (model.Bar, bool) {
	key := tick.MinuteKey()
	state, exists := a.states[tick.InstrumentID]

	if exists && key != state.key {
		done := finalize(state)
		a.states[tick.InstrumentID] = newState(tick, key)
		return done, true
	}

	if !exists {
		a.states[tick.InstrumentID] = newState(tick, key)
		return model.Bar{}, false
	}

	// Same bucket — merge and refresh the key fields from this tick.
	state.key = key
	state.lastVolume = tick.Volume
	b := &state.bar
	b.TradingDay = tick.TradingDay
	b.Minute = tick.Minute()
	if tick.LastPrice > b.High {
		b.High = tick.LastPrice
	}
	if tick.LastPrice < b.Low {
		b.Low = tick.LastPrice
	}
	b.Close = tick.LastPrice
	b.BidPrice = tick.BidPrice
	b.BidVolume = tick.BidVolume
	b.AskPrice = tick.AskPrice
	b.AskVolume = tick.AskVolume
	b.TicksCount++
	return model.Bar{}, false
}

// Flush finalizes every open bucket, ordered by instrument id for a
// deterministic tail. Called once at stream end.
func (a *Aggregator) Flush() []model.Bar {
	if len(a.states) == 0 {
		return nil
	}
	ids := make([]string, 0, len(a.states))
	for id := range a.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.Bar, 0, len(ids))
	for _, id := range ids {
		out = append(out, finalize(a.states[id]))
		delete(a.states, id)
	}
	return out
}

// ActiveInstruments returns the count of instruments with an open bucket.
func (a *Aggregator) ActiveInstruments() int {
	return len(a.states)
}

func newState(tick model.Tick, key string) *barState {
	return &barState{
		key:         key,
		firstVolume: tick.Volume,
		lastVolume:  tick.Volume,
		bar: model.Bar{
			InstrumentID: tick.InstrumentID,
			TradingDay:   tick.TradingDay,
			Minute:       tick.Minute(),
			Open:         tick.LastPrice,
			High:         tick.LastPrice,
			Low:          tick.LastPrice,
			Close:        tick.LastPrice,
			BidPrice:     tick.BidPrice,
			BidVolume:    tick.BidVolume,
			AskPrice:     tick.AskPrice,
			AskVolume:    tick.AskVolume,
			TicksCount:   1,
		},
	}
}

// finalize computes the volume delta (clamped at zero to absorb counter
// resets) and the bucket timestamp, then returns the completed bar.
func finalize(state *barState) model.Bar {
	b := state.bar
	delta := state.lastVolume - state.firstVolume
	if delta < 0 {
		delta = 0
	}
	b.Volume = delta
	b.TimestampNS = model.BarTimestamp(b.TradingDay, b.Minute)
	return b
}
