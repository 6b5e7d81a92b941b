package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: "json", Writer: &buf}
	return New(cfg, "voicepulse"), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestNew_JSONFields(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")
	l.WithComponent("session").WithSession("lecture-1").Info("chunk processed", Fields(FieldChunkIndex, 3))

	m := decodeLine(t, buf)
	if m["message"] != "chunk processed" {
		t.Errorf("expected message 'chunk processed', got %v", m["message"])
	}
	if m[FieldComponent] != "session" {
		t.Errorf("expected component 'session', got %v", m[FieldComponent])
	}
	if m[FieldSessionID] != "lecture-1" {
		t.Errorf("expected session_id 'lecture-1', got %v", m[FieldSessionID])
	}
	if m[FieldChunkIndex] != float64(3) {
		t.Errorf("expected chunk_index 3, got %v", m[FieldChunkIndex])
	}
	if m["service"] != "voicepulse" {
		t.Errorf("expected service 'voicepulse', got %v", m["service"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn to be written, got %q", buf.String())
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := newBufferLogger(t, "nonsense")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("expected debug to be filtered with fallback info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected info to be written")
	}
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, buf)
	if m["error"] != "boom" {
		t.Errorf("expected error 'boom', got %v", m["error"])
	}
}

func TestWithContext_AddsTraceIDs(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.WithContext(ctx).Info("traced")
	m := decodeLine(t, buf)
	if m[FieldTraceID] != traceID.String() {
		t.Errorf("expected trace_id %s, got %v", traceID, m[FieldTraceID])
	}
	if m[FieldSpanID] != spanID.String() {
		t.Errorf("expected span_id %s, got %v", spanID, m[FieldSpanID])
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	l, _ := newBufferLogger(t, "info")
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger when context has no span")
	}
}

func TestFields_OddArgs(t *testing.T) {
	m := Fields("a", 1, "b")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("expected only key a, got %v", m)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", func() Config { c := Config{}; c.ApplyDefaults(); return c }(), false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("expected wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(New(&Config{Level: "info", Format: "json", Writer: &buf}, "global"))
	defer SetGlobalLogger(nil)

	Info("hello", Fields("k", "v"))
	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("expected global logger output, got %q", buf.String())
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "info", Format: FormatConsole, NoColor: true, Writer: &buf}, "voicepulse")
	l.Warn("checkpoint dropped", Fields(FieldGeneration, 2))

	out := buf.String()
	if !strings.Contains(out, "WRN") {
		t.Errorf("expected WRN level tag, got %q", out)
	}
	if !strings.Contains(out, "generation:2") {
		t.Errorf("expected generation:2 field, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no color codes, got %q", out)
	}
}

func TestGetGlobalLogger_Default(t *testing.T) {
	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected a default global logger")
	}
	if GetGlobalLogger() != GetGlobalLogger() {
		t.Error("expected the default logger to be built once")
	}
}
