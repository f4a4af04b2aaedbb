package judge

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/deepscout/deepscout/internal/errors"
)

var codeBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Extract parses a JSON object out of a raw model response. Strategies, in
// order: direct parse, fenced code block, first balanced top-level object.
// Failure returns a typed *errors.ExtractionError carrying the raw response.
func Extract(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)

	var out map[string]any
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, nil
	}

	if m := codeBlockPattern.FindStringSubmatch(raw); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &out); err == nil {
			return out, nil
		}
	}

	if obj := firstBalancedObject(raw); obj != "" {
		if err := json.Unmarshal([]byte(obj), &out); err == nil {
			return out, nil
		}
	}

	return nil, errors.NewExtractionError(raw, nil)
}

// firstBalancedObject scans for the first top-level {...} span with balanced
// braces, ignoring braces inside string literals.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Braces inside strings do not affect depth.
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// String reads a string field from an extracted structure, with a default.
func String(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

// Float reads a numeric field from an extracted structure, with a default.
// JSON numbers decode as float64; integers stored by tests also match.
func Float(m map[string]any, key string, def float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// Bool reads a boolean field from an extracted structure, with a default.
func Bool(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

// Strings reads a string-slice field from an extracted structure.
// Missing or malformed fields yield an empty slice, never nil panic paths.
func Strings(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Objects reads a slice of nested objects from an extracted structure.
func Objects(m map[string]any, key string) []map[string]any {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if obj, ok := v.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
