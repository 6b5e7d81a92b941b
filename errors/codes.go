package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Collaborator errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates a collaborator is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates a collaborator call timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates a collaborator rejected the call for rate reasons.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeExternalService indicates an error returned by an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeTranscriptionFailed indicates the audio-to-text collaborator failed.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
)

// Session errors
const (
	// ErrCodeSessionNotFound indicates no pipeline is registered for the session id.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeSessionExists indicates a pipeline is already registered for the session id.
	ErrCodeSessionExists ErrorCode = "SESSION_EXISTS"
	// ErrCodeSessionClosed indicates the pipeline was closed.
	ErrCodeSessionClosed ErrorCode = "SESSION_CLOSED"
	// ErrCodeChunkNotFound indicates a late-binding update referenced an unknown chunk index.
	ErrCodeChunkNotFound ErrorCode = "CHUNK_NOT_FOUND"
)

// Analysis errors
const (
	// ErrCodeAnalysisFailed indicates a feature extractor degraded to its fallback.
	ErrCodeAnalysisFailed ErrorCode = "ANALYSIS_FAILED"
	// ErrCodeCheckpointFailed indicates the tone collaborator could not produce a judgment.
	ErrCodeCheckpointFailed ErrorCode = "CHECKPOINT_FAILED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnsupportedFormat indicates an audio container that cannot be decoded.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
)

// Storage errors
const (
	// ErrCodeLectureNotFound indicates no archived lecture has the session id.
	ErrCodeLectureNotFound ErrorCode = "LECTURE_NOT_FOUND"
	// ErrCodeLectureExists indicates a lecture with the session id is already archived.
	ErrCodeLectureExists ErrorCode = "LECTURE_EXISTS"
	// ErrCodeStorage indicates the lecture archive could not be read or written.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable:  true,
	ErrCodeTimeout:             true,
	ErrCodeRateLimited:         true,
	ErrCodeExternalService:     true,
	ErrCodeTranscriptionFailed: true,
	ErrCodeCheckpointFailed:    true,
	ErrCodeStorage:             true,
	ErrCodeInternal:            false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
