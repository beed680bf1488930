package ticksource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"quant-replayv1/internal/model"
)

// Column names follow the upstream CTP-style tick schema.
const (
	colTradingDay   = "TradingDay"
	colInstrumentID = "InstrumentID"
	colUpdateTime   = "UpdateTime"
	colUpdateMillis = "UpdateMillisec"
	colLastPrice    = "LastPrice"
	colVolume       = "Volume"
	colBidPrice     = "BidPrice1"
	colBidVolume    = "BidVolume1"
	colAskPrice     = "AskPrice1"
	colAskVolume    = "AskVolume1"
	colAveragePrice = "AveragePrice"
	colTurnover     = "Turnover"
	colOpenInterest = "OpenInterest"
)

// requiredColumns must be present in every header; the rest default to
// zero when the column is absent.
var requiredColumns = []string{
	colTradingDay, colInstrumentID, colUpdateTime, colLastPrice, colVolume,
}

// columnIndex maps header names to field positions for one file.
type columnIndex map[string]int

func buildColumnIndex(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

// field returns the raw value of a column, or "" if the column is absent
// or the row is short.
func (idx columnIndex) field(row []string, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// tickFromRow converts one CSV row into a Tick using the lenient numeric
// parsers: empty or malformed numeric fields become zero.
func (idx columnIndex) tickFromRow(row []string) model.Tick {
	return model.Tick{
		InstrumentID: strings.TrimSpace(idx.field(row, colInstrumentID)),
		TradingDay:   strings.TrimSpace(idx.field(row, colTradingDay)),
		UpdateTime:   strings.TrimSpace(idx.field(row, colUpdateTime)),
		UpdateMillis: int(ParseInt(idx.field(row, colUpdateMillis))),
		LastPrice:    ParseFloat(idx.field(row, colLastPrice)),
		Volume:       ParseInt(idx.field(row, colVolume)),
		BidPrice:     ParseFloat(idx.field(row, colBidPrice)),
		BidVolume:    ParseInt(idx.field(row, colBidVolume)),
		AskPrice:     ParseFloat(idx.field(row, colAskPrice)),
		AskVolume:    ParseInt(idx.field(row, colAskVolume)),
		AveragePrice: ParseFloat(idx.field(row, colAveragePrice)),
		Turnover:     ParseFloat(idx.field(row, colTurnover)),
		OpenInterest: ParseFloat(idx.field(row, colOpenInterest)),
	}
}

// flatFileReader lazily reads ticks from one header-driven CSV file.
type flatFileReader struct {
	f   *os.File
	csv *csv.Reader
	idx columnIndex
}

func openFlatFile(path string) (*flatFileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may omit trailing columns
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file %s", ErrMissingColumn, path)
		}
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	idx, err := buildColumnIndex(header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &flatFileReader{f: f, csv: r, idx: idx}, nil
}

func (r *flatFileReader) next() (model.Tick, bool, error) {
	for {
		row, err := r.csv.Read()
		if err == io.EOF {
			return model.Tick{}, false, nil
		}
		if err != nil {
			return model.Tick{}, false, fmt.Errorf("read row: %w", err)
		}
		tick := r.idx.tickFromRow(row)
		if tick.InstrumentID == "" {
			continue // blank row, skip
		}
		return tick, true, nil
	}
}

func (r *flatFileReader) close() {
	if r.f != nil {
		r.f.Close()
		r.f = nil
	}
}
