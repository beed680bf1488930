package model

// RolloverMode selects how an instrument-identity change is handled.
type RolloverMode string

const (
	RolloverNone   RolloverMode = "none"
	RolloverStrict RolloverMode = "strict"
	RolloverCarry  RolloverMode = "carry"
)

// RolloverPricePolicy selects the reference price for rollover actions.
type RolloverPricePolicy string

const (
	RolloverPriceLast RolloverPricePolicy = "last" // last trade price
	RolloverPriceBBO  RolloverPricePolicy = "bbo"  // best bid/offer mid
	RolloverPriceMid  RolloverPricePolicy = "mid"  // full mid (bid+ask+last)/3
)

// RolloverAction is one synthetic step taken during a rollover.
type RolloverAction string

const (
	RolloverActionClose RolloverAction = "close"
	RolloverActionOpen  RolloverAction = "open"
	RolloverActionCarry RolloverAction = "carry"
)

// RolloverEvent records one contract rollover: the outgoing and incoming
// instrument, the mode and price policy applied, the realized slippage
// cost, and the ordered list of actions taken.
type RolloverEvent struct {
	FromInstrument string              `json:"from_instrument"`
	ToInstrument   string              `json:"to_instrument"`
	Mode           RolloverMode        `json:"mode"`
	PricePolicy    RolloverPricePolicy `json:"price_policy"`
	ReferencePrice float64             `json:"reference_price"`
	SlippageCost   float64             `json:"slippage_cost"`
	Actions        []RolloverAction    `json:"actions"`
	TimestampNS    int64               `json:"timestamp_ns"`
}
