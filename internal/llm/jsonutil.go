package llm

import (
	"encoding/json"
	"fmt"
)

// ParseObject parses model output into a JSON object. Models occasionally
// wrap the object in prose or markdown fences; when direct parsing fails,
// the first balanced {...} substring is extracted and parsed instead.
func ParseObject(text string) (Result, error) {
	var obj Result
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, nil
	}

	candidate, ok := extractObject(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in model output")
	}

	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON object: %w", err)
	}
	return obj, nil
}

// extractObject returns the first balanced top-level {...} substring,
// honoring string literals and escapes so braces inside values don't break
// the balance count.
func extractObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if escaped {
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}
