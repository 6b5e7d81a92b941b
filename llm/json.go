package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON object embedded in model output. Models
// asked for bare JSON still wrap it in ``` fences or add a sentence around
// it; both are stripped. Text without an object is returned trimmed.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// Drop the fence line, including a language tag such as "json".
		if _, body, found := strings.Cut(rest, "\n"); found {
			rest = body
		}
		if i := strings.LastIndex(rest, "```"); i >= 0 {
			rest = rest[:i]
		}
		s = strings.TrimSpace(rest)
	}

	lo, hi := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if lo < 0 || hi <= lo {
		return s
	}
	return s[lo : hi+1]
}

// DecodeJSON unmarshals the JSON object found in content into v.
func DecodeJSON(content string, v any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(content)), v); err != nil {
		return fmt.Errorf("llm: decode json content: %w", err)
	}
	return nil
}
