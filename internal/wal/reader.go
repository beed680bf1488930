package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReadAll decodes every record from a WAL file in sequence order and
// verifies the strictly-increasing-from-1 sequencing.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wal open: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("wal decode line %d: %w", lineNo, err)
		}
		if rec.Seq != int64(len(records)+1) {
			return nil, fmt.Errorf("wal sequence gap at line %d: got seq=%d want %d",
				lineNo, rec.Seq, len(records)+1)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wal scan: %w", err)
	}
	return records, nil
}
