package model

import (
	"encoding/json"
	"time"
)

// Bar represents a minute OHLCV bar for a single instrument, aggregated
// from the tick stream. The bucket key (trading day + minute) follows the
// last tick merged into the bucket.
type Bar struct {
	InstrumentID string  `json:"instrument_id"`
	TradingDay   string  `json:"trading_day"` // YYYYMMDD
	Minute       string  `json:"minute"`      // HH:MM
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       int64   `json:"volume"` // delta over the bucket, clamped >= 0
	BidPrice     float64 `json:"bid_price"`
	BidVolume    int64   `json:"bid_volume"`
	AskPrice     float64 `json:"ask_price"`
	AskVolume    int64   `json:"ask_volume"`
	TicksCount   int     `json:"ticks_count"`
	TimestampNS  int64   `json:"timestamp_ns"` // derived from TradingDay+Minute
}

// Key returns the bucket key: "YYYYMMDD HH:MM".
func (b *Bar) Key() string {
	return b.TradingDay + " " + b.Minute
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	j, _ := json.Marshal(b)
	return j
}

// BarTimestamp derives the nanosecond timestamp for a day+minute bucket key.
func BarTimestamp(tradingDay, minute string) int64 {
	day := parseDay(tradingDay)
	if day.IsZero() || len(minute) < 5 {
		return 0
	}
	hh := 10*int(minute[0]-'0') + int(minute[1]-'0')
	mm := 10*int(minute[3]-'0') + int(minute[4]-'0')
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, time.UTC).UnixNano()
}
