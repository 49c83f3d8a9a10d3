package recommendations

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// PayloadError means the repaired response text is not a JSON array of
// suggestion objects.
type PayloadError struct {
	// Raw is the response text, truncated to 500 characters.
	Raw string
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("failed to parse AI response as JSON: %v (response: %q)", e.Err, e.Raw)
}

func (e *PayloadError) Unwrap() error { return e.Err }

var fencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSONArray recovers the JSON payload from free-form text. It returns
// the inner text of the first fenced block, else the first bracketed array,
// else the trimmed input.
func ExtractJSONArray(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if span, ok := findArraySpan(raw); ok {
		return span
	}
	return strings.TrimSpace(raw)
}

// findArraySpan scans for balanced [...] spans, ignoring brackets inside JSON
// strings. The first span that is valid JSON wins, then the first balanced
// span, then the widest first-'[' to last-']' slice.
func findArraySpan(s string) (string, bool) {
	var first string
	for start := strings.IndexByte(s, '['); start >= 0; {
		end := matchBracket(s, start)
		if end < 0 {
			break
		}
		span := s[start : end+1]
		if json.Valid([]byte(span)) {
			return span, true
		}
		if first == "" {
			first = span
		}
		next := strings.IndexByte(s[end+1:], '[')
		if next < 0 {
			break
		}
		start = end + 1 + next
	}
	if first != "" {
		return first, true
	}
	open, last := strings.IndexByte(s, '['), strings.LastIndexByte(s, ']')
	if open >= 0 && last > open {
		return s[open : last+1], true
	}
	return "", false
}

func matchBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseSuggestions repairs raw and decodes it into suggestions. Empty input
// means no suggestions. A single object is treated as a one-element list.
func ParseSuggestions(raw string, logger *slog.Logger) ([]RawSuggestion, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	payload := ExtractJSONArray(raw)
	logger.Debug("Extracted JSON payload", "chars", len(payload))

	var decoded interface{}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, &PayloadError{Raw: truncate(raw, 500), Err: err}
	}

	var items []interface{}
	switch v := decoded.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		logger.Warn("AI returned non-list response, wrapping in list")
		items = []interface{}{v}
	default:
		return nil, &PayloadError{Raw: truncate(raw, 500), Err: fmt.Errorf("expected JSON array, got %T", decoded)}
	}

	out := make([]RawSuggestion, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			logger.Warn("Skipping non-object suggestion", "index", i, "type", fmt.Sprintf("%T", item))
			continue
		}
		out = append(out, RawSuggestion(m))
	}
	return out, nil
}

func truncate(s string, limit int) string {
	if s == "" || limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
