package execution

import (
	"testing"

	"quant-replayv1/internal/model"
)

func intent(instrument string, side model.Side, vol int64) model.Intent {
	return model.Intent{
		StrategyID:   "test",
		InstrumentID: instrument,
		Side:         side,
		Offset:       model.OffsetOpen,
		Volume:       vol,
		TimestampNS:  1715333400000000000,
	}
}

func TestExecuteEmitsAcceptThenFill(t *testing.T) {
	sim := NewSimulator("sim-001")

	accepted, filled := sim.Execute(intent("rb2405", model.SideBuy, 2), 100.5)

	if accepted.Status != model.StatusAccepted || accepted.FilledVolume != 0 {
		t.Errorf("accepted = %+v", accepted)
	}
	if filled.Status != model.StatusFilled || filled.FilledVolume != 2 || filled.AvgFillPrice != 100.5 {
		t.Errorf("filled = %+v", filled)
	}
	if accepted.OrderID != filled.OrderID {
		t.Errorf("order ids differ: %q vs %q", accepted.OrderID, filled.OrderID)
	}
	if accepted.TraceID == "" || accepted.TraceID != filled.TraceID {
		t.Errorf("trace ids: %q vs %q", accepted.TraceID, filled.TraceID)
	}
	if accepted.AccountID != "sim-001" {
		t.Errorf("account = %q", accepted.AccountID)
	}
}

func TestOrderIDsZeroPaddedMonotonic(t *testing.T) {
	sim := NewSimulator("sim-001")

	a1, _ := sim.Execute(intent("rb2405", model.SideBuy, 1), 100)
	a2, _ := sim.Execute(intent("rb2405", model.SideSell, 1), 101)

	if a1.OrderID != "000000001" {
		t.Errorf("first order id = %q, want 000000001", a1.OrderID)
	}
	if a2.OrderID != "000000002" {
		t.Errorf("second order id = %q, want 000000002", a2.OrderID)
	}
	if sim.OrdersPlaced() != 2 {
		t.Errorf("OrdersPlaced = %d, want 2", sim.OrdersPlaced())
	}
}

func TestTraceIDsDeterministicAcrossRuns(t *testing.T) {
	run := func() []string {
		sim := NewSimulator("sim-001")
		var ids []string
		for _, it := range []model.Intent{
			intent("rb2405", model.SideBuy, 2),
			intent("ag2406", model.SideSell, 1),
		} {
			a, _ := sim.Execute(it, 100)
			ids = append(ids, a.TraceID)
		}
		return ids
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("trace id %d differs across identical runs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestIntentTraceIDPreserved(t *testing.T) {
	sim := NewSimulator("sim-001")
	it := intent("rb2405", model.SideBuy, 1)
	it.TraceID = "caller-supplied"
	a, f := sim.Execute(it, 100)
	if a.TraceID != "caller-supplied" || f.TraceID != "caller-supplied" {
		t.Errorf("trace ids = %q / %q, want caller-supplied", a.TraceID, f.TraceID)
	}
}
