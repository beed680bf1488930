package model

import "time"

// Tick represents a single normalized market data tick from a historical
// tick file or partitioned dataset. Volume and Turnover are cumulative
// session counters, so per-bar deltas are computed by subtraction.
type Tick struct {
	InstrumentID string  `json:"instrument_id"`
	TradingDay   string  `json:"trading_day"` // YYYYMMDD
	UpdateTime   string  `json:"update_time"` // HH:MM:SS
	UpdateMillis int     `json:"update_millis"`
	LastPrice    float64 `json:"last_price"`
	Volume       int64   `json:"volume"` // cumulative traded volume
	BidPrice     float64 `json:"bid_price"`
	BidVolume    int64   `json:"bid_volume"`
	AskPrice     float64 `json:"ask_price"`
	AskVolume    int64   `json:"ask_volume"`
	AveragePrice float64 `json:"average_price"`
	Turnover     float64 `json:"turnover"` // cumulative
	OpenInterest float64 `json:"open_interest"`
}

// MinuteKey returns the day+minute bucket key for this tick: "YYYYMMDD HH:MM".
// Seconds are deliberately excluded — bars are minute-bucketed.
func (t *Tick) MinuteKey() string {
	if len(t.UpdateTime) >= 5 {
		return t.TradingDay + " " + t.UpdateTime[:5]
	}
	return t.TradingDay + " " + t.UpdateTime
}

// Minute returns the HH:MM portion of the tick's time-of-day.
func (t *Tick) Minute() string {
	if len(t.UpdateTime) >= 5 {
		return t.UpdateTime[:5]
	}
	return t.UpdateTime
}

// Timestamp combines trading day, time-of-day, and millisecond offset into
// a UTC nanosecond timestamp. Unparseable fields yield zero components.
func (t *Tick) Timestamp() int64 {
	day := parseDay(t.TradingDay)
	hh, mm, ss := parseClock(t.UpdateTime)
	ts := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, ss, t.UpdateMillis*int(time.Millisecond), time.UTC)
	return ts.UnixNano()
}

func parseDay(s string) time.Time {
	d, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return d
}

func parseClock(s string) (hh, mm, ss int) {
	if len(s) < 8 {
		return 0, 0, 0
	}
	hh = 10*int(s[0]-'0') + int(s[1]-'0')
	mm = 10*int(s[3]-'0') + int(s[4]-'0')
	ss = 10*int(s[6]-'0') + int(s[7]-'0')
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 60 {
		return 0, 0, 0
	}
	return hh, mm, ss
}
