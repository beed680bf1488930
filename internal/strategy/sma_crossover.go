package strategy

import (
	"context"
	"log"

	"quant-replayv1/internal/model"
)

// SMACrossover implements a simple SMA crossover strategy over minute bars.
//
// Buy signal: fast SMA crosses above slow SMA (golden cross)
// Sell signal: fast SMA crosses below slow SMA (death cross)
type SMACrossover struct {
	name       string
	fastPeriod int
	slowPeriod int
	qty        int64

	states map[string]*smaState // key = instrument id
}

// smaState holds the per-instrument ring buffers and crossover memory.
type smaState struct {
	fastBuf []float64
	slowBuf []float64
	fastIdx int
	slowIdx int
	fastSum float64
	slowSum float64
	count   int

	prevFast float64
	prevSlow float64
	ready    bool
}

// NewSMACrossover creates a new SMA crossover driver.
// fastPeriod < slowPeriod (e.g., 5 and 20). qty is contracts per trade.
func NewSMACrossover(fastPeriod, slowPeriod int, qty int64) *SMACrossover {
	return &SMACrossover{
		name:       "SMA_Crossover",
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		qty:        qty,
		states:     make(map[string]*smaState),
	}
}

func (s *SMACrossover) Name() string {
	return s.name
}

func (s *SMACrossover) OnBar(_ context.Context, bars []model.Bar) []model.Intent {
	var intents []model.Intent
	for i := range bars {
		if intent := s.onBar(&bars[i]); intent != nil {
			intents = append(intents, *intent)
		}
	}
	return intents
}

func (s *SMACrossover) OnState(context.Context, Snapshot) []model.Intent {
	return nil
}

func (s *SMACrossover) OnOrderEvent(_ context.Context, event model.OrderEvent) {
	if event.Status == model.StatusFilled {
		log.Printf("[strategy] %s: %s %s filled %d @ %.2f", s.name,
			event.Side, event.InstrumentID, event.FilledVolume, event.AvgFillPrice)
	}
}

func (s *SMACrossover) onBar(bar *model.Bar) *model.Intent {
	st, ok := s.states[bar.InstrumentID]
	if !ok {
		st = &smaState{
			fastBuf: make([]float64, s.fastPeriod),
			slowBuf: make([]float64, s.slowPeriod),
		}
		s.states[bar.InstrumentID] = st
	}

	price := bar.Close
	st.count++

	// Update fast SMA ring buffer
	st.fastSum -= st.fastBuf[st.fastIdx]
	st.fastBuf[st.fastIdx] = price
	st.fastSum += price
	st.fastIdx = (st.fastIdx + 1) % s.fastPeriod

	// Update slow SMA ring buffer
	st.slowSum -= st.slowBuf[st.slowIdx]
	st.slowBuf[st.slowIdx] = price
	st.slowSum += price
	st.slowIdx = (st.slowIdx + 1) % s.slowPeriod

	if st.count < s.slowPeriod {
		return nil
	}

	fastSMA := st.fastSum / float64(s.fastPeriod)
	slowSMA := st.slowSum / float64(s.slowPeriod)

	defer func() {
		st.prevFast = fastSMA
		st.prevSlow = slowSMA
		st.ready = true
	}()

	if !st.ready {
		return nil
	}

	// Golden cross: fast crosses above slow
	if st.prevFast <= st.prevSlow && fastSMA > slowSMA {
		return &model.Intent{
			StrategyID:   s.name,
			InstrumentID: bar.InstrumentID,
			Side:         model.SideBuy,
			Offset:       model.OffsetOpen,
			Volume:       s.qty,
			TimestampNS:  bar.TimestampNS,
		}
	}

	// Death cross: fast crosses below slow
	if st.prevFast >= st.prevSlow && fastSMA < slowSMA {
		return &model.Intent{
			StrategyID:   s.name,
			InstrumentID: bar.InstrumentID,
			Side:         model.SideSell,
			Offset:       model.OffsetClose,
			Volume:       s.qty,
			TimestampNS:  bar.TimestampNS,
		}
	}

	return nil
}
