// Package ai provides LLM response recovery utilities and the provider
// chain shared by all model-backed components.
package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models wrap JSON in code fences or surround it with prose often enough
// that a strict parse alone is not workable. DecodeLLMJSON implements the
// two-stage contract: strict parse first, then a documented recovery pass
// (fence stripping, brace-matched extraction, trailing-comma repair).

var trailingCommas = regexp.MustCompile(`,(\s*[}\]])`)

// DecodeLLMJSON decodes a model response into v, applying the recovery
// heuristic when the raw text is not valid JSON.
func DecodeLLMJSON(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	cleaned := CleanJSONResponse(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("op=ai.decode_llm_json: %w", err)
	}
	return nil
}

// CleanJSONResponse applies the recovery heuristic and returns its best
// candidate JSON text. The result is not guaranteed to parse.
func CleanJSONResponse(raw string) string {
	s := stripCodeFences(raw)
	s = ExtractJSONObject(s)
	s = trailingCommas.ReplaceAllString(s, "$1")
	return s
}

// IsValidJSON reports whether s parses as JSON.
func IsValidJSON(s string) bool {
	var v any
	return json.Unmarshal([]byte(s), &v) == nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the first brace-balanced JSON object embedded
// in s, or s unchanged when no balanced object is found. Braces inside
// string literals are skipped.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
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
					return s[start : i+1]
				}
			}
		}
	}
	return s
}
