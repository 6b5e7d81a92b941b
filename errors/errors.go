// Package errors provides the structured error type shared by the analysis
// core and its collaborators. Every error carries a machine-readable code and
// a retryable flag derived from that code.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// --- Constructors ---

// InvalidInput creates an AppError for an invalid argument.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an AppError for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// SessionNotFound creates an AppError for an unknown session id.
func SessionNotFound(id string) *AppError {
	return &AppError{
		Code: ErrCodeSessionNotFound, Message: fmt.Sprintf("No pipeline registered for session %q.", id),
		Details: map[string]any{"session_id": id},
	}
}

// SessionExists creates an AppError for a duplicate session id.
func SessionExists(id string) *AppError {
	return &AppError{
		Code: ErrCodeSessionExists, Message: fmt.Sprintf("A pipeline is already registered for session %q.", id),
		Details: map[string]any{"session_id": id},
	}
}

// SessionClosed creates an AppError for operations on a closed pipeline.
func SessionClosed(id string) *AppError {
	return &AppError{
		Code: ErrCodeSessionClosed, Message: "The pipeline has been closed.",
		Details: map[string]any{"session_id": id},
	}
}

// ChunkNotFound creates an AppError for late-binding updates that reference
// chunk indices the pipeline never recorded.
func ChunkNotFound(indices []int, total int) *AppError {
	return &AppError{
		Code:    ErrCodeChunkNotFound,
		Message: fmt.Sprintf("Chunk indices %v are outside the recorded range [0,%d).", indices, total),
		Details: map[string]any{"indices": indices, "total_chunks": total},
	}
}

// AnalysisFailed creates an AppError describing a degraded feature extractor.
func AnalysisFailed(analyzer string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeAnalysisFailed, Message: fmt.Sprintf("%s analysis failed", analyzer),
		Details: map[string]any{"analyzer": analyzer}, Cause: cause,
	}
}

// CheckpointFailed creates an AppError for a failed tone evaluation.
func CheckpointFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCheckpointFailed, Message: "Tone checkpoint evaluation failed.",
		Retryable: true, Cause: cause,
	}
}

// TranscriptionFailed creates an AppError for a failed audio-to-text call.
func TranscriptionFailed(provider string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTranscriptionFailed, Message: fmt.Sprintf("Transcription via %s failed.", provider),
		Retryable: true, Details: map[string]any{"provider": provider}, Cause: cause,
	}
}

// UnsupportedFormat creates an AppError for undecodable audio input.
func UnsupportedFormat(format string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("Unsupported audio format %q.", format),
		Details: map[string]any{"format": format},
	}
}

// Timeout creates an AppError for a collaborator call that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// ExternalServiceError creates an AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		Retryable: true, Details: map[string]any{"service": service}, Cause: cause,
	}
}

// LectureNotFound creates an AppError for a session id missing from the archive.
func LectureNotFound(id string) *AppError {
	return &AppError{
		Code: ErrCodeLectureNotFound, Message: fmt.Sprintf("No archived lecture for session %q.", id),
		Details: map[string]any{"session_id": id},
	}
}

// LectureExists creates an AppError for archiving a session id twice.
func LectureExists(id string) *AppError {
	return &AppError{
		Code: ErrCodeLectureExists, Message: fmt.Sprintf("Session %q is already archived.", id),
		Details: map[string]any{"session_id": id},
	}
}

// StorageError creates an AppError for a failed archive operation.
func StorageError(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: "The lecture archive is temporarily unavailable.",
		Retryable: true, Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}
