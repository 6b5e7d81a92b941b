package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/voicepulse/errors"
)

type sample struct {
	Name       string  `json:"name" validate:"required"`
	SampleRate int     `json:"sample_rate" validate:"gte=8000"`
	Ratio      float64 `json:"ratio" validate:"lte=1"`
	Endpoint   string  `validate:"omitempty,url"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		input    sample
		wantErr  bool
		contains []string
	}{
		{"valid", sample{Name: "a", SampleRate: 16000, Ratio: 0.5}, false, nil},
		{"missing name", sample{SampleRate: 16000}, true, []string{"name: is required"}},
		{"low sample rate", sample{Name: "a", SampleRate: 100}, true, []string{"sample_rate: must be at least 8000"}},
		{"multiple", sample{SampleRate: 1, Ratio: 2}, true, []string{"name:", "sample_rate:", "ratio: must be at most 1"}},
		{"bad url uses snake case", sample{Name: "a", SampleRate: 16000, Endpoint: "::"}, true, []string{"endpoint: must be a valid URL"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.input)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != errors.ErrCodeInvalidInput {
				t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
			}
			for _, want := range tc.contains {
				if !strings.Contains(appErr.Message, want) {
					t.Errorf("expected message to contain %q, got %q", want, appErr.Message)
				}
			}
			if _, ok := appErr.Details["fields"].([]FieldError); !ok {
				t.Errorf("expected fields detail, got %T", appErr.Details["fields"])
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"SampleRate": "sample_rate",
		"Name":       "name",
		"already":    "already",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q): expected %q, got %q", in, want, got)
		}
	}
}

type retrySection struct {
	MaxAttempts int `mapstructure:"max_attempts" json:"attempts" validate:"gte=1"`
}

type collaborator struct {
	Retry retrySection `mapstructure:"retry"`
}

func TestValidate_NestedKeyPath(t *testing.T) {
	err := Validate(collaborator{})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	fields := appErr.Details["fields"].([]FieldError)
	if len(fields) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fields))
	}
	if fields[0].Field != "retry.max_attempts" {
		t.Errorf("expected field retry.max_attempts, got %q", fields[0].Field)
	}
	if fields[0].Message != "must be at least 1" {
		t.Errorf("expected 'must be at least 1', got %q", fields[0].Message)
	}
}
