package textutil

import "strings"

// TruncatedMarker is appended to text cut by TruncateTail.
const TruncatedMarker = "\n[truncated]"

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// TruncateTail keeps the first limit runes of s and drops the rest, marking
// the cut with TruncatedMarker. It reports whether anything was dropped.
// A non-positive limit disables truncation.
func TruncateTail(s string, limit int) (string, bool) {
	if limit <= 0 {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	return string(runes[:limit]) + TruncatedMarker, true
}

// SingleLine collapses all whitespace runs, including newlines, into single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
