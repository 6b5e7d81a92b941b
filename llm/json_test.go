package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! {"a":1} hope this helps`, `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
		{"whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.input); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Score float64 `json:"sentiment_score"`
	}
	if err := DecodeJSON("```json\n{\"sentiment_score\": 0.5}\n```", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Score != 0.5 {
		t.Errorf("expected 0.5, got %v", out.Score)
	}
	if err := DecodeJSON("not json", &out); err == nil {
		t.Error("expected decode error")
	}
}
