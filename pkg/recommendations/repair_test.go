package recommendations

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain array", `[{"title":"a"}]`, `[{"title":"a"}]`},
		{"json fence", "Here you go:\n```json\n[{\"title\":\"a\"}]\n```\nDone.", `[{"title":"a"}]`},
		{"untagged fence", "```\n[1, 2]\n```", `[1, 2]`},
		{"uppercase tag", "```JSON\n[]\n```", `[]`},
		{"fence wins over trailing array", "```json\n[{\"a\":1}]\n```\nalso [2, 3]", `[{"a":1}]`},
		{"array in prose", `I found these: [{"title":"x]"}] hope it helps`, `[{"title":"x]"}]`},
		{"skips bracketed prose", `See [docs] then [{"title":"y"}]`, `[{"title":"y"}]`},
		{"nothing to extract", "  no json here  ", "no json here"},
		{"single object", ` {"title":"solo"} `, `{"title":"solo"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONArray(tt.in); got != tt.want {
				t.Fatalf("ExtractJSONArray = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSuggestions(t *testing.T) {
	got, err := ParseSuggestions("```json\n[{\"title\":\"a\"}, 42, {\"title\":\"b\"}]\n```", quietLogger())
	if err != nil {
		t.Fatalf("ParseSuggestions error: %v", err)
	}
	if len(got) != 2 || got[1].StringOr("", "title") != "b" {
		t.Fatalf("expected two object suggestions, got %v", got)
	}

	single, err := ParseSuggestions(`{"title":"solo"}`, quietLogger())
	if err != nil || len(single) != 1 {
		t.Fatalf("expected single object to be wrapped, got %v, %v", single, err)
	}

	empty, err := ParseSuggestions("   ", quietLogger())
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no suggestions for empty text, got %v, %v", empty, err)
	}
}

func TestParseSuggestionsPayloadError(t *testing.T) {
	raw := "I could not analyze this. " + strings.Repeat("x", 1000)
	_, err := ParseSuggestions(raw, quietLogger())
	var pe *PayloadError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PayloadError, got %v", err)
	}
	if len(pe.Raw) > 503 {
		t.Fatalf("expected raw text truncated to 500 characters, got %d", len(pe.Raw))
	}

	if _, err := ParseSuggestions(`"just a string"`, quietLogger()); !errors.As(err, &pe) {
		t.Fatalf("expected PayloadError for a JSON string, got %v", err)
	}
}
