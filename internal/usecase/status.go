package usecase

import "voicehud/internal/domain"

const (
	statusListening = "Listening…"
	statusSpeakNow  = "Listening… speak now"
	statusThinking  = "Thinking…"
	statusAnswer    = "Answer:"
)

func heardMessage(text string) string {
	return "🗣 \"" + text + "\""
}

func failureMessage(kind domain.FailureKind) string {
	switch kind {
	case domain.FailureMicUnavailable:
		return "No microphone found"
	case domain.FailureUnintelligible:
		return "Didn't catch that — try speaking again"
	case domain.FailureRecognitionService:
		return "Speech recognition is unavailable"
	case domain.FailureConnection:
		return "Can't reach the assistant backend — check that the server is running"
	case domain.FailureTimeout:
		return "The assistant didn't respond in time"
	case domain.FailureBadResponse:
		return "The assistant returned an unexpected response"
	case domain.FailureSynthesis:
		return "Voice synthesis failed"
	case domain.FailurePlayback:
		return "Audio playback failed"
	default:
		return "Something went wrong"
	}
}
