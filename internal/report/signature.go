package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ConfigSignature hashes the canonical JSON encoding of a run
// configuration. Two runs asked the same question iff their config
// signatures match; the data signature (computed by the tick source over
// every consumed row) answers whether they read the same data.
func ConfigSignature(cfg any) string {
	j, err := json.Marshal(cfg)
	if err != nil {
		// Config structs are plain data; a marshal failure is a
		// programming error, signal it with a distinct value.
		return "unhashable-config"
	}
	sum := sha256.Sum256(j)
	return hex.EncodeToString(sum[:])
}
