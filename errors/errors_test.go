package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{ErrCodeTimeout, true},
		{ErrCodeTranscriptionFailed, true},
		{ErrCodeCheckpointFailed, true},
		{ErrCodeSessionNotFound, false},
		{ErrCodeInvalidInput, false},
		{ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "msg")
			if err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v for %s, got %v", tc.retryable, tc.code, err.Retryable)
			}
			if err.Message != "msg" {
				t.Errorf("expected message 'msg', got %q", err.Message)
			}
		})
	}
}

func TestAppError_SessionNotFound(t *testing.T) {
	err := SessionNotFound("lecture-1")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected SESSION_NOT_FOUND, got %s", err.Code)
	}
	if err.Details["session_id"] != "lecture-1" {
		t.Errorf("expected session_id=lecture-1, got %v", err.Details["session_id"])
	}
	if !strings.Contains(err.Error(), "lecture-1") {
		t.Errorf("expected error string to contain id, got %q", err.Error())
	}
}

func TestAppError_ChunkNotFound(t *testing.T) {
	err := ChunkNotFound([]int{7, 9}, 5)
	if err.Code != ErrCodeChunkNotFound {
		t.Errorf("expected CHUNK_NOT_FOUND, got %s", err.Code)
	}
	if err.Details["total_chunks"] != 5 {
		t.Errorf("expected total_chunks=5, got %v", err.Details["total_chunks"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := TranscriptionFailed("whisper", nil).WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", SessionClosed("s1"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to unwrap")
	}
	if appErr.Code != ErrCodeSessionClosed {
		t.Errorf("expected SESSION_CLOSED, got %s", appErr.Code)
	}
	if !HasCode(wrapped, ErrCodeSessionClosed) {
		t.Error("expected HasCode to match")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeSessionClosed) {
		t.Error("expected HasCode to reject plain errors")
	}
}

func TestAppError_InvalidInput(t *testing.T) {
	err := InvalidInput("sample_rate", "must be positive")
	if err.Details["field"] != "sample_rate" {
		t.Errorf("expected field=sample_rate, got %v", err.Details["field"])
	}
	if !strings.HasPrefix(err.Message, "Invalid input:") {
		t.Errorf("unexpected message %q", err.Message)
	}

	noField := InvalidInput("", "bad")
	if _, ok := noField.Details["field"]; ok {
		t.Error("expected no field detail when field is empty")
	}
}
