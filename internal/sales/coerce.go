package sales

import (
	"math"
	"strconv"
	"strings"
)

// CoerceAmount parses loosely formatted money input such as " 1,250.50 ".
// Thousands separators and surrounding whitespace are stripped. Empty, garbage
// or non-finite input yields def. It never fails.
func CoerceAmount(raw string, def float64) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// parseID reads a required numeric reference. Unparsable input is 0.
func parseID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// parseOptionalID reads an optional numeric reference. Empty and non-positive
// values are absent.
func parseOptionalID(raw string) (*int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, ErrInvalidOrderRef
	}
	if id <= 0 {
		return nil, nil
	}
	return &id, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
