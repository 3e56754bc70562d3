package screening

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the first balanced JSON object found in raw, byte for
// byte. Braces inside quoted strings are ignored. It fails with ErrExtraction
// when no balanced object exists or when a second well-formed top-level object
// follows the first one, since it is then unclear which one was meant.
func ExtractJSON(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return "", fmt.Errorf("%w: no opening brace", ErrExtraction)
	}

	end, ok := balancedEnd(raw, start)
	if !ok {
		return "", fmt.Errorf("%w: unbalanced object", ErrExtraction)
	}
	candidate := raw[start : end+1]

	for next := end + 1; next < len(raw); {
		i := strings.IndexByte(raw[next:], '{')
		if i == -1 {
			break
		}
		s := next + i
		e, ok := balancedEnd(raw, s)
		if !ok {
			break
		}
		if json.Valid([]byte(raw[s : e+1])) {
			return "", fmt.Errorf("%w: multiple top-level objects", ErrExtraction)
		}
		next = e + 1
	}

	return candidate, nil
}

// balancedEnd returns the index of the brace closing the one at start.
func balancedEnd(s string, start int) (int, bool) {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
