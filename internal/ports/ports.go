package ports

import (
	"context"
	"io"

	"voicehud/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live exclusive microphone capture.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture acquires microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// RecognizerConfig describes provider-agnostic streaming recognition settings.
type RecognizerConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	Language       string
	InterimResults bool
}

// RecognizerSession is an active streaming recognition session.
type RecognizerSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// Recognizer starts streaming recognition sessions.
type Recognizer interface {
	StartSession(ctx context.Context, cfg RecognizerConfig) (RecognizerSession, error)
}

// SpeechCapturer is the capture stage: it blocks until one utterance has
// been transcribed or the attempt failed. onReady fires once, after the
// microphone and recognizer are warmed up and speech will be heard.
type SpeechCapturer interface {
	Capture(ctx context.Context, onReady func()) (string, error)
}

// Responder is the inference stage. It must not mutate history; it receives
// a snapshot and returns the reply only.
type Responder interface {
	Respond(ctx context.Context, userText string, history []domain.Turn) (string, error)
}

// Synthesizer is the synthesis-and-playback stage.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// SynthesisClient converts text into encoded audio written to dst.
type SynthesisClient interface {
	Synthesize(ctx context.Context, text string, dst io.Writer) error
}

// Player plays an audio file through the local output device.
type Player interface {
	Play(ctx context.Context, path string) error
}

// UISink receives orchestrator output for the overlay to render.
type UISink interface {
	Notify(text string, tone domain.StatusTone)
	ShowCollapsed()
	ShowExpanded(text string)
	PulseStart()
	PulseStop()
	Hide()
}
