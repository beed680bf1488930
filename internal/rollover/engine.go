// Package rollover detects contract rollovers in the bar stream and
// restates ledger positions across instrument identities.
//
// A rollover happens when the stream's active instrument for a logical
// product (the letter prefix of the instrument id, e.g. "rb" in
// "rb2405") changes between consecutive bars. Strict mode closes the
// outgoing position at a policy-selected reference price and reopens it
// on the incoming instrument with slippage charged against notional;
// carry mode transfers the position unchanged at zero cost.
package rollover

import (
	"fmt"
	"log"
	"strings"

	"quant-replayv1/internal/ledger"
	"quant-replayv1/internal/model"
)

// Config selects the rollover behavior for a run. Validation errors are
// fatal at configuration time, before any tick is processed.
type Config struct {
	Mode        model.RolloverMode        `json:"mode"`
	PricePolicy model.RolloverPricePolicy `json:"price_policy"`
	SlippageBps float64                   `json:"slippage_bps"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Mode {
	case model.RolloverNone, model.RolloverStrict, model.RolloverCarry:
	default:
		return fmt.Errorf("rollover: unknown mode %q", c.Mode)
	}
	switch c.PricePolicy {
	case model.RolloverPriceLast, model.RolloverPriceBBO, model.RolloverPriceMid:
	default:
		return fmt.Errorf("rollover: unknown price policy %q", c.PricePolicy)
	}
	if c.SlippageBps < 0 {
		return fmt.Errorf("rollover: slippage bps must be >= 0, got %v", c.SlippageBps)
	}
	return nil
}

// Engine tracks the active instrument per logical product and applies
// rollover actions against the run's ledger.
type Engine struct {
	cfg       Config
	active    map[string]string    // product -> current instrument
	lastBars  map[string]model.Bar // instrument -> last bar seen
	totalCost float64
	events    int
	actions   int
}

// New validates the config and creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.PricePolicy == "" {
		cfg.PricePolicy = model.RolloverPriceLast
	}
	if cfg.Mode == "" {
		cfg.Mode = model.RolloverNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		active:   make(map[string]string),
		lastBars: make(map[string]model.Bar),
	}, nil
}

// Observe inspects one finalized bar. When the bar's instrument replaces
// a different active instrument for the same product while a position is
// open, the configured rollover is applied to the ledger and the
// resulting event is returned.
func (e *Engine) Observe(bar model.Bar, book *ledger.Ledger) (model.RolloverEvent, bool) {
	product := Product(bar.InstrumentID)
	prev, tracked := e.active[product]
	e.active[product] = bar.InstrumentID
	defer func() { e.lastBars[bar.InstrumentID] = bar }()

	if e.cfg.Mode == model.RolloverNone || !tracked || prev == bar.InstrumentID {
		return model.RolloverEvent{}, false
	}

	pos := book.Position(prev)
	if pos.Qty == 0 {
		// Identity changed with nothing open: switch tracking silently.
		return model.RolloverEvent{}, false
	}

	ref := e.referencePrice(prev, bar)
	event := model.RolloverEvent{
		FromInstrument: prev,
		ToInstrument:   bar.InstrumentID,
		Mode:           e.cfg.Mode,
		PricePolicy:    e.cfg.PricePolicy,
		ReferencePrice: ref,
		TimestampNS:    bar.TimestampNS,
	}

	switch e.cfg.Mode {
	case model.RolloverStrict:
		qty := pos.Qty
		book.ApplyFill(prev, -qty, ref)

		adj := ref * e.cfg.SlippageBps / 10000
		openPrice := ref + adj
		if qty < 0 {
			openPrice = ref - adj
		}
		book.ApplyFill(bar.InstrumentID, qty, openPrice)

		cost := adj * float64(abs64(qty))
		e.totalCost += cost
		event.SlippageCost = cost
		event.Actions = []model.RolloverAction{model.RolloverActionClose, model.RolloverActionOpen}

	case model.RolloverCarry:
		book.Transfer(prev, bar.InstrumentID)
		event.Actions = []model.RolloverAction{model.RolloverActionCarry}
	}

	e.events++
	e.actions += len(event.Actions)
	log.Printf("[rollover] %s -> %s mode=%s policy=%s ref=%.2f cost=%.4f",
		prev, bar.InstrumentID, event.Mode, event.PricePolicy, ref, event.SlippageCost)
	return event, true
}

// TotalSlippageCost returns the accumulated strict-mode slippage cost.
func (e *Engine) TotalSlippageCost() float64 {
	return e.totalCost
}

// Events returns the number of rollover events observed.
func (e *Engine) Events() int {
	return e.events
}

// Actions returns the number of rollover actions taken (close/open/carry).
func (e *Engine) Actions() int {
	return e.actions
}

// referencePrice selects the rollover price from the outgoing
// instrument's last bar per the configured policy, falling back to the
// incoming bar and then to last trade when quotes are missing.
func (e *Engine) referencePrice(outgoing string, incoming model.Bar) float64 {
	src, ok := e.lastBars[outgoing]
	if !ok {
		src = incoming
	}
	var ref float64
	switch e.cfg.PricePolicy {
	case model.RolloverPriceBBO:
		ref = (src.BidPrice + src.AskPrice) / 2
	case model.RolloverPriceMid:
		ref = (src.BidPrice + src.AskPrice + src.Close) / 3
	default:
		ref = src.Close
	}
	if ref <= 0 {
		ref = src.Close
	}
	return ref
}

// Product extracts the logical product code: the leading letters of an
// instrument id ("rb2405" -> "rb").
func Product(instrumentID string) string {
	for i := 0; i < len(instrumentID); i++ {
		c := instrumentID[i]
		if c >= '0' && c <= '9' {
			return strings.ToLower(instrumentID[:i])
		}
	}
	return strings.ToLower(instrumentID)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
