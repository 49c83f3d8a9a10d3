package recommendations

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawSuggestion is one untyped suggestion object from the reasoning service.
// Every field may be absent or of the wrong type; accessors report whether a
// usable value was found.
type RawSuggestion map[string]interface{}

// String returns the first key holding a string-like value.
func (s RawSuggestion) String(keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := s[k]
		if !ok || v == nil {
			continue
		}
		if str, ok := coerceString(v); ok {
			return str, true
		}
	}
	return "", false
}

// StringOr returns String(keys...) or fallback.
func (s RawSuggestion) StringOr(fallback string, keys ...string) string {
	if v, ok := s.String(keys...); ok {
		return v
	}
	return fallback
}

// Float returns the first key holding a number or a numeric string.
func (s RawSuggestion) Float(keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := coerceFloat(s[k]); ok {
			return f, true
		}
	}
	return 0, false
}

// FloatOr returns Float(keys...) or fallback.
func (s RawSuggestion) FloatOr(fallback float64, keys ...string) float64 {
	if v, ok := s.Float(keys...); ok {
		return v
	}
	return fallback
}

func coerceString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool, int, int64:
		return fmt.Sprintf("%v", t), true
	default:
		return "", false
	}
}

// coerceFloat accepts finite numbers only; NaN and infinities count as missing.
func coerceFloat(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "$"))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
