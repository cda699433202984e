package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Repair parses JSON from model output, with lightweight recovery for
// markdown code fences, surrounding prose, and trailing commas.
// The winning candidate is returned byte for byte, so key order and
// number representations survive.
func Repair(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty model output")
	}

	candidates := []string{content}
	if stripped := StripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	// Second pass: same candidates with trailing commas removed.
	base := len(candidates)
	for i := 0; i < base; i++ {
		if fixed := removeTrailingCommas(candidates[i]); fixed != candidates[i] {
			candidates = append(candidates, fixed)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("failed to parse JSON from model output")
}

// RepairArray is Repair restricted to a top-level JSON array.
func RepairArray(content string) (json.RawMessage, error) {
	raw, err := Repair(content)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("model output is not a JSON array")
	}
	return raw, nil
}

// StripCodeFences removes a surrounding markdown code fence if present.
// Returns "" when the content is not fenced.
func StripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONCandidate pulls the outermost {...} or [...] span out of
// surrounding prose.
func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && arrayStart >= 0:
		if objectStart < arrayStart {
			start = objectStart
			closeChar = "}"
		} else {
			start = arrayStart
			closeChar = "]"
		}
	case objectStart >= 0:
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// removeTrailingCommas drops commas that directly precede a closing brace or
// bracket, outside of string literals.
func removeTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escaped := false
	runes := []rune(content)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inString {
			out.WriteRune(r)
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == '"' {
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
			out.WriteRune(r)
		case ',':
			// Look ahead past whitespace for a closing delimiter.
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue // drop the comma
			}
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}

	return out.String()
}
