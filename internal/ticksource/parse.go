package ticksource

import (
	"strconv"
	"strings"
)

// The tick files come from an upstream normalizer that occasionally leaves
// numeric fields empty. Per contract those parse to zero instead of
// aborting the read: an empty field means zero, not "missing row".

// ParseFloat converts a numeric field, defaulting to 0 on empty or
// malformed input.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseInt converts an integer field, defaulting to 0 on empty or
// malformed input.
func ParseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some feeds emit integral volumes as "123.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return v
}
