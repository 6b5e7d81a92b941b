package transcription

// TranscriptionRequest holds parameters for a transcription call.
type TranscriptionRequest struct {
	// Audio is the encoded audio file content (WAV, FLAC, ...).
	Audio []byte `json:"-"`
	// FileName is the upload file name. Its extension tells the backend the
	// container format.
	FileName string `json:"file_name"`
	// ContentType is the MIME type of Audio.
	ContentType string `json:"content_type,omitempty"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`
	// Prompt biases the transcription (names, jargon).
	Prompt string `json:"prompt,omitempty"`
}

// TranscriptionResponse holds the result of a transcription call.
type TranscriptionResponse struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Segments contains time-aligned transcript segments.
	Segments []Segment `json:"segments,omitempty"`
	// Words contains per-word timings when the backend provides them.
	Words []Word `json:"words,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Word is a single transcribed word with its timing in seconds from the
// start of the uploaded audio.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}
