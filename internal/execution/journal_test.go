package execution

import (
	"path/filepath"
	"testing"

	"quant-replayv1/internal/model"
)

func TestJournalRoundTrip(t *testing.T) {
	j, err := NewJournal(filepath.Join(t.TempDir(), "fills.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	ev := model.OrderEvent{
		OrderID:      "000000001",
		InstrumentID: "rb2405",
		Side:         model.SideBuy,
		Offset:       model.OffsetOpen,
		Status:       model.StatusFilled,
		TotalVolume:  2,
		FilledVolume: 2,
		AvgFillPrice: 100.5,
		TraceID:      "trace-1",
		TimestampNS:  1715333400000000000,
	}
	if err := j.RecordFill("SMA_Crossover", ev); err != nil {
		t.Fatal(err)
	}

	fills, err := j.GetFills(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(fills) != 1 {
		t.Fatalf("got %d fills, want 1", len(fills))
	}
	f := fills[0]
	if f.OrderID != "000000001" || f.Strategy != "SMA_Crossover" || f.Instrument != "rb2405" {
		t.Errorf("fill = %+v", f)
	}
	if f.Volume != 2 || f.Price != 100.5 || f.TraceID != "trace-1" {
		t.Errorf("fill values = %+v", f)
	}
}

func TestJournalNewestFirst(t *testing.T) {
	j, err := NewJournal(filepath.Join(t.TempDir(), "fills.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	for i, id := range []string{"000000001", "000000002", "000000003"} {
		ev := model.OrderEvent{
			OrderID: id, InstrumentID: "rb2405",
			Side: model.SideBuy, Offset: model.OffsetOpen,
			Status: model.StatusFilled, FilledVolume: int64(i + 1), AvgFillPrice: 100,
		}
		if err := j.RecordFill("test", ev); err != nil {
			t.Fatal(err)
		}
	}

	fills, err := j.GetFills(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(fills) != 2 {
		t.Fatalf("got %d fills, want 2", len(fills))
	}
	if fills[0].OrderID != "000000003" || fills[1].OrderID != "000000002" {
		t.Errorf("order: %s, %s, want newest first", fills[0].OrderID, fills[1].OrderID)
	}
}
