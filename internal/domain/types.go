package domain

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation history. Immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// OverlayState models the conversation loop lifecycle.
type OverlayState string

const (
	StateIdle      OverlayState = "idle"
	StateListening OverlayState = "listening"
	StateThinking  OverlayState = "thinking"
	StateSpeaking  OverlayState = "speaking"
	StateCooldown  OverlayState = "cooldown"
)

// StatusTone selects how a status message is rendered by the overlay.
type StatusTone string

const (
	ToneNormal StatusTone = "normal"
	ToneAccent StatusTone = "accent"
	ToneError  StatusTone = "error"
)

// FailureKind categorizes the terminal failure of a stage invocation.
type FailureKind string

const (
	FailureMicUnavailable     FailureKind = "mic_unavailable"
	FailureUnintelligible     FailureKind = "unintelligible"
	FailureRecognitionService FailureKind = "recognition_service"
	FailureConnection         FailureKind = "llm_connection"
	FailureTimeout            FailureKind = "llm_timeout"
	FailureBadResponse        FailureKind = "llm_bad_response"
	FailureSynthesis          FailureKind = "synthesis"
	FailurePlayback           FailureKind = "playback"
)

// TranscriptKind identifies whether a recognizer event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent is incremental recognition output from a provider.
type TranscriptEvent struct {
	Kind         TranscriptKind `json:"kind"`
	Text         string         `json:"text"`
	UtteranceEnd bool           `json:"utteranceEnd"`
}
