package textutil

import (
	"strings"
	"testing"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestTruncateTail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		limit     int
		expect    string
		truncated bool
	}{
		{name: "disabled", input: "abcdef", limit: 0, expect: "abcdef"},
		{name: "fits", input: "abc", limit: 3, expect: "abc"},
		{name: "cuts the end", input: "abcdef", limit: 4, expect: "abcd" + TruncatedMarker, truncated: true},
		{name: "counts runes", input: "привет мир", limit: 6, expect: "привет" + TruncatedMarker, truncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, truncated := TruncateTail(tt.input, tt.limit)
			if got != tt.expect || truncated != tt.truncated {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.expect, tt.truncated, got, truncated)
			}
		})
	}
}

func TestSingleLine(t *testing.T) {
	got := SingleLine("  Calm &\tProfessional\r\n tone ")
	if got != "Calm & Professional tone" {
		t.Fatalf("unexpected result: %q", got)
	}
	if strings.Contains(SingleLine("a\nb"), "\n") {
		t.Fatalf("expected newlines to be removed")
	}
}
