package bars

import (
	"testing"

	"quant-replayv1/internal/model"
)

func tick(instrument, day, tm string, price float64, cumVol int64) model.Tick {
	return model.Tick{
		InstrumentID: instrument,
		TradingDay:   day,
		UpdateTime:   tm,
		LastPrice:    price,
		Volume:       cumVol,
	}
}

func TestAggregatorBasicOHLCV(t *testing.T) {
	agg := New()

	if _, done := agg.Add(tick("rb2405", "20240510", "09:30:00", 100, 10)); done {
		t.Fatal("first tick should not finalize a bar")
	}
	if _, done := agg.Add(tick("rb2405", "20240510", "09:30:20", 105, 14)); done {
		t.Fatal("same-minute tick should not finalize a bar")
	}
	if _, done := agg.Add(tick("rb2405", "20240510", "09:30:40", 99, 18)); done {
		t.Fatal("same-minute tick should not finalize a bar")
	}

	bar, done := agg.Add(tick("rb2405", "20240510", "09:31:00", 101, 20))
	if !done {
		t.Fatal("minute change should finalize the previous bucket")
	}
	if bar.Open != 100 || bar.High != 105 || bar.Low != 99 || bar.Close != 99 {
		t.Errorf("OHLC = %v/%v/%v/%v, want 100/105/99/99", bar.Open, bar.High, bar.Low, bar.Close)
	}
	if bar.Volume != 8 {
		t.Errorf("volume delta = %d, want 8", bar.Volume)
	}
	if bar.TicksCount != 3 {
		t.Errorf("ticks count = %d, want 3", bar.TicksCount)
	}
	if bar.Minute != "09:30" {
		t.Errorf("minute = %q, want 09:30", bar.Minute)
	}
}

func TestAggregatorClosedBarKeepsOwnKey(t *testing.T) {
	agg := New()
	agg.Add(tick("rb2405", "20240510", "09:30:00", 100, 10))
	agg.Add(tick("rb2405", "20240510", "09:30:59", 101, 12))

	bar, done := agg.Add(tick("rb2405", "20240510", "09:31:00", 102, 14))
	if !done {
		t.Fatal("expected closed bar")
	}
	// The closed bar is keyed by its own last tick, never the incoming one.
	if bar.Key() != "20240510 09:30" {
		t.Errorf("closed bar key = %q, want %q", bar.Key(), "20240510 09:30")
	}

	bars := agg.Flush()
	if len(bars) != 1 || bars[0].Key() != "20240510 09:31" {
		t.Fatalf("flush = %+v, want one 09:31 bar", bars)
	}
}

func TestAggregatorDayChangeClosesBucket(t *testing.T) {
	agg := New()
	agg.Add(tick("rb2405", "20240510", "09:30:00", 100, 10))
	bar, done := agg.Add(tick("rb2405", "20240511", "09:30:30", 101, 12))
	if !done {
		t.Fatal("day change within same minute should close the bucket")
	}
	if bar.TradingDay != "20240510" {
		t.Errorf("closed bar day = %q, want 20240510", bar.TradingDay)
	}
}

func TestAggregatorMultiInstrument(t *testing.T) {
	agg := New()
	agg.Add(tick("rb2405", "20240510", "09:30:00", 100, 10))
	agg.Add(tick("ag2406", "20240510", "09:30:05", 7300, 4))

	// rb advances a minute; ag's bucket stays open.
	bar, done := agg.Add(tick("rb2405", "20240510", "09:31:00", 101, 12))
	if !done || bar.InstrumentID != "rb2405" {
		t.Fatalf("expected rb2405 bar, got done=%v %+v", done, bar)
	}
	if agg.ActiveInstruments() != 2 {
		t.Errorf("active instruments = %d, want 2", agg.ActiveInstruments())
	}
}

func TestAggregatorFlushSortedByInstrument(t *testing.T) {
	agg := New()
	agg.Add(tick("zn2407", "20240510", "09:30:00", 50, 1))
	agg.Add(tick("ag2406", "20240510", "09:30:01", 7300, 2))
	agg.Add(tick("rb2405", "20240510", "09:30:02", 100, 3))

	bars := agg.Flush()
	if len(bars) != 3 {
		t.Fatalf("flush returned %d bars, want 3", len(bars))
	}
	want := []string{"ag2406", "rb2405", "zn2407"}
	for i, w := range want {
		if bars[i].InstrumentID != w {
			t.Errorf("flush[%d] = %s, want %s", i, bars[i].InstrumentID, w)
		}
	}
	if agg.ActiveInstruments() != 0 {
		t.Errorf("flush should empty the aggregator, %d left", agg.ActiveInstruments())
	}
}

func TestAggregatorVolumeClampOnCounterReset(t *testing.T) {
	agg := New()
	agg.Add(tick("rb2405", "20240510", "09:30:00", 100, 50))
	// Cumulative counter goes backwards (session reset in the data).
	agg.Add(tick("rb2405", "20240510", "09:30:30", 101, 5))

	bars := agg.Flush()
	if len(bars) != 1 {
		t.Fatalf("flush returned %d bars, want 1", len(bars))
	}
	if bars[0].Volume != 0 {
		t.Errorf("volume = %d, want 0 (clamped)", bars[0].Volume)
	}
}

func TestAggregatorBarTimestamp(t *testing.T) {
	agg := New()
	agg.Add(tick("rb2405", "20240510", "09:30:00", 100, 10))
	bars := agg.Flush()
	if len(bars) != 1 {
		t.Fatal("expected one bar")
	}
	if want := model.BarTimestamp("20240510", "09:30"); bars[0].TimestampNS != want {
		t.Errorf("timestamp = %d, want %d", bars[0].TimestampNS, want)
	}
}
