// Package wal provides the append-only write-ahead log for replay runs.
//
// Every order, trade, and rollover event becomes exactly one sequenced
// JSON line. Write failures are fatal to the owning run: a partially
// written WAL would break the append-only sequencing guarantee. With no
// destination configured the writer is a no-op, a deliberate mode for
// fast local iteration without durability.
package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Writer appends sequenced records to a single WAL file. The sequence
// counter is owned by the writer instance: concurrent replays must use
// independent writers.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
	seq int64
}

// NewWriter opens (creates or truncates) the WAL file at path. An empty
// path returns a no-op writer that only counts would-be records as zero.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return &Writer{}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("wal mkdir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal open: %w", err)
	}
	log.Printf("[wal] opened %s", path)
	return &Writer{f: f, buf: bufio.NewWriter(f)}, nil
}

// Enabled reports whether the writer has a destination.
func (w *Writer) Enabled() bool {
	return w.f != nil
}

// Append assigns the next sequence number and writes the record as one
// JSON line. On a no-op writer it does nothing and keeps Count at zero.
func (w *Writer) Append(rec Record) error {
	if w.f == nil {
		return nil
	}
	w.seq++
	rec.Seq = w.seq
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("wal marshal seq=%d: %w", rec.Seq, err)
	}
	if _, err := w.buf.Write(line); err != nil {
		return fmt.Errorf("wal write seq=%d: %w", rec.Seq, err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("wal write seq=%d: %w", rec.Seq, err)
	}
	return nil
}

// Count returns the number of records appended so far.
func (w *Writer) Count() int64 {
	return w.seq
}

// Close flushes and syncs the WAL file. Safe on a no-op writer.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("wal flush: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("wal sync: %w", err)
	}
	return w.f.Close()
}
