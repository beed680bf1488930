package ticksource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const flatHeader = "TradingDay,InstrumentID,UpdateTime,UpdateMillisec,LastPrice,Volume,BidPrice1,BidVolume1,AskPrice1,AskVolume1\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func drain(t *testing.T, st *Stream) int64 {
	t.Helper()
	for {
		_, ok, err := st.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return st.Count()
		}
	}
}

func TestOpenNotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"), 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFlatFileRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	writeFile(t, path, flatHeader+
		"20240510,rb2405,09:30:00,0,3500.0,10,3499.0,5,3501.0,6\n"+
		"20240510,rb2405,09:30:30,500,3502.0,14,3501.0,4,3503.0,2\n")

	src, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	st, err := src.Stream()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	tick, ok, err := st.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if tick.InstrumentID != "rb2405" || tick.LastPrice != 3500.0 || tick.Volume != 10 {
		t.Errorf("unexpected tick: %+v", tick)
	}
	if tick.BidPrice != 3499.0 || tick.AskVolume != 6 {
		t.Errorf("quote fields not parsed: %+v", tick)
	}

	tick, ok, _ = st.Next()
	if !ok || tick.UpdateMillis != 500 {
		t.Errorf("second tick: ok=%v %+v", ok, tick)
	}

	if _, ok, _ := st.Next(); ok {
		t.Error("expected stream exhaustion")
	}
	if st.Count() != 2 {
		t.Errorf("Count = %d, want 2", st.Count())
	}
}

func TestFlatFileMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	writeFile(t, path, "TradingDay,InstrumentID,UpdateTime,Volume\n20240510,rb2405,09:30:00,10\n")

	src, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Stream(); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestFlatFileSkipsBlankInstrument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	writeFile(t, path, flatHeader+
		"20240510,rb2405,09:30:00,0,3500.0,10,0,0,0,0\n"+
		"20240510,,09:30:01,0,0,0,0,0,0,0\n"+
		"20240510,rb2405,09:30:02,0,3501.0,12,0,0,0,0\n")

	src, _ := Open(path, 0)
	st, err := src.Stream()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if n := drain(t, st); n != 2 {
		t.Errorf("drained %d ticks, want 2 (blank row skipped)", n)
	}
}

func TestLenientNumericParsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	writeFile(t, path, flatHeader+
		"20240510,rb2405,09:30:00,,not-a-number,123.0,,,,\n")

	src, _ := Open(path, 0)
	st, err := src.Stream()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	tick, ok, err := st.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if tick.LastPrice != 0 {
		t.Errorf("malformed price should parse to 0, got %v", tick.LastPrice)
	}
	if tick.Volume != 123 {
		t.Errorf("float-formatted volume should parse to 123, got %d", tick.Volume)
	}
}

func TestMaxTicksCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	content := flatHeader
	content += "20240510,rb2405,09:30:00,0,3500.0,10,0,0,0,0\n"
	content += "20240510,rb2405,09:30:01,0,3501.0,11,0,0,0,0\n"
	content += "20240510,rb2405,09:30:02,0,3502.0,12,0,0,0,0\n"
	writeFile(t, path, content)

	src, _ := Open(path, 2)
	st, err := src.Stream()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if n := drain(t, st); n != 2 {
		t.Errorf("drained %d ticks, want 2", n)
	}
}

func TestDatasetMergeByTimestamp(t *testing.T) {
	root := t.TempDir()
	// Two instruments partitioned separately; timestamps interleave.
	writeFile(t, filepath.Join(root, "ctp", "20240510", "rb2405", "part-0.csv"), flatHeader+
		"20240510,rb2405,09:30:00,0,3500.0,10,0,0,0,0\n"+
		"20240510,rb2405,09:30:02,0,3502.0,12,0,0,0,0\n")
	writeFile(t, filepath.Join(root, "ctp", "20240510", "ag2406", "part-0.csv"), flatHeader+
		"20240510,ag2406,09:30:01,0,7300.0,4,0,0,0,0\n")

	src, err := Open(root, 0)
	if err != nil {
		t.Fatal(err)
	}
	st, err := src.Stream()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	var order []string
	for {
		tick, ok, err := st.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		order = append(order, tick.InstrumentID)
	}
	want := []string{"rb2405", "ag2406", "rb2405"}
	if len(order) != len(want) {
		t.Fatalf("got %d ticks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, order[i], want[i])
		}
	}
}

func TestDataSignatureIndependentOfLayout(t *testing.T) {
	rows := map[string]string{
		"a": "20240510,rb2405,09:30:00,0,3500.0,10,0,0,0,0\n",
		"b": "20240510,ag2406,09:30:01,0,7300.0,4,0,0,0,0\n",
		"c": "20240510,rb2405,09:30:02,0,3502.0,12,0,0,0,0\n",
	}

	rootA := t.TempDir()
	writeFile(t, filepath.Join(rootA, "ctp", "20240510", "rb2405", "part-0.csv"), flatHeader+rows["a"]+rows["c"])
	writeFile(t, filepath.Join(rootA, "ctp", "20240510", "ag2406", "part-0.csv"), flatHeader+rows["b"])

	rootB := t.TempDir()
	// Same rows, different physical partitioning.
	writeFile(t, filepath.Join(rootB, "ctp", "20240510", "rb2405", "part-0.csv"), flatHeader+rows["a"])
	writeFile(t, filepath.Join(rootB, "ctp", "20240510", "rb2405", "part-1.csv"), flatHeader+rows["c"])
	writeFile(t, filepath.Join(rootB, "ctp", "20240510", "ag2406", "part-0.csv"), flatHeader+rows["b"])

	sig := func(root string) string {
		src, err := Open(root, 0)
		if err != nil {
			t.Fatal(err)
		}
		st, err := src.Stream()
		if err != nil {
			t.Fatal(err)
		}
		defer st.Close()
		drain(t, st)
		return st.Signature()
	}

	sigA, sigB := sig(rootA), sig(rootB)
	if sigA != sigB {
		t.Errorf("signatures differ across layouts:\n  A=%s\n  B=%s", sigA, sigB)
	}
}

func TestDataSignatureCoversCanonicalForm(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	// Same values, different textual spellings: the signature hashes
	// parsed ticks, so these are the same data.
	writeFile(t, pathA, flatHeader+"20240510,rb2405,09:30:00,0,100.0,10,0,0,0,0\n")
	writeFile(t, pathB, flatHeader+"20240510,rb2405,09:30:00,0,100.00,10,0.0,0,0.0,0\n")

	sig := func(path string) string {
		src, _ := Open(path, 0)
		st, err := src.Stream()
		if err != nil {
			t.Fatal(err)
		}
		defer st.Close()
		drain(t, st)
		return st.Signature()
	}

	if sig(pathA) != sig(pathB) {
		t.Error("equal parsed ticks must produce equal signatures")
	}
}

func TestDataSignatureSensitiveToContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	writeFile(t, pathA, flatHeader+"20240510,rb2405,09:30:00,0,3500.0,10,0,0,0,0\n")
	writeFile(t, pathB, flatHeader+"20240510,rb2405,09:30:00,0,3500.1,10,0,0,0,0\n")

	sig := func(path string) string {
		src, _ := Open(path, 0)
		st, err := src.Stream()
		if err != nil {
			t.Fatal(err)
		}
		defer st.Close()
		drain(t, st)
		return st.Signature()
	}

	if sig(pathA) == sig(pathB) {
		t.Error("expected different signatures for different prices")
	}
}
