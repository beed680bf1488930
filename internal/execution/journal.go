package execution

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"quant-replayv1/internal/model"
)

// Journal persists terminal fills to SQLite for analysis and audit.
// Optional: a replay run without a journal path skips it entirely.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS fills (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id    TEXT NOT NULL,
		strategy    TEXT NOT NULL,
		side        TEXT NOT NULL,
		offset      TEXT NOT NULL,
		instrument  TEXT NOT NULL,
		volume      INTEGER NOT NULL,
		price       REAL NOT NULL,
		trace_id    TEXT,
		ts_ns       INTEGER NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_fills_instrument ON fills(instrument);
	CREATE INDEX IF NOT EXISTS idx_fills_ts ON fills(ts_ns);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened fill journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordFill persists one terminal fill.
func (j *Journal) RecordFill(strategyID string, ev model.OrderEvent) error {
	_, err := j.db.Exec(
		`INSERT INTO fills (order_id, strategy, side, offset, instrument, volume, price, trace_id, ts_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.OrderID,
		strategyID,
		string(ev.Side),
		string(ev.Offset),
		ev.InstrumentID,
		ev.FilledVolume,
		ev.AvgFillPrice,
		ev.TraceID,
		ev.TimestampNS,
	)
	return err
}

// FillRecord represents a row from the fills table.
type FillRecord struct {
	ID         int64   `json:"id"`
	OrderID    string  `json:"order_id"`
	Strategy   string  `json:"strategy"`
	Side       string  `json:"side"`
	Offset     string  `json:"offset"`
	Instrument string  `json:"instrument"`
	Volume     int64   `json:"volume"`
	Price      float64 `json:"price"`
	TraceID    string  `json:"trace_id"`
	TsNS       int64   `json:"ts_ns"`
	CreatedAt  string  `json:"created_at"`
}

// GetFills returns the last N fills, newest first.
func (j *Journal) GetFills(limit int) ([]FillRecord, error) {
	rows, err := j.db.Query(
		`SELECT id, order_id, strategy, side, offset, instrument, volume, price, trace_id, ts_ns, created_at
		 FROM fills ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []FillRecord
	for rows.Next() {
		var f FillRecord
		var created time.Time
		if err := rows.Scan(&f.ID, &f.OrderID, &f.Strategy, &f.Side, &f.Offset,
			&f.Instrument, &f.Volume, &f.Price, &f.TraceID, &f.TsNS, &created); err != nil {
			continue
		}
		f.CreatedAt = created.UTC().Format(time.RFC3339)
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
