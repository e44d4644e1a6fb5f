package capture

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voicehud/internal/domain"
	"voicehud/internal/ports"
)

// Config controls one capture attempt: how audio is recorded and when an
// utterance is considered finished.
type Config struct {
	Audio           ports.AudioConfig
	Language        string
	EnergyThreshold int
	PauseThreshold  time.Duration
	PhraseTimeLimit time.Duration
	ChunkSize       int
}

func (c Config) withDefaults() Config {
	if c.EnergyThreshold <= 0 {
		c.EnergyThreshold = 300
	}
	if c.PauseThreshold <= 0 {
		c.PauseThreshold = 1500 * time.Millisecond
	}
	if c.PhraseTimeLimit <= 0 {
		c.PhraseTimeLimit = 30 * time.Second
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 4096
	}
	return c
}

// Stage is the capture stage: it owns the microphone for the duration of one
// utterance, streams audio to the recognizer, and decides when the user has
// finished speaking.
type Stage struct {
	audio      ports.AudioCapture
	recognizer ports.Recognizer
	log        zerolog.Logger
	cfg        Config
}

func NewStage(audio ports.AudioCapture, recognizer ports.Recognizer, log zerolog.Logger, cfg Config) *Stage {
	return &Stage{
		audio:      audio,
		recognizer: recognizer,
		log:        log.With().Str("component", "capture").Logger(),
		cfg:        cfg.withDefaults(),
	}
}

// Capture records one utterance and returns its transcript. The utterance
// ends on a recognizer end-of-speech marker, on a pause longer than the
// pause threshold after speech was heard, or at the phrase time limit.
func (s *Stage) Capture(ctx context.Context, onReady func()) (string, error) {
	mic, err := s.audio.Start(ctx, s.cfg.Audio)
	if err != nil {
		return "", domain.NewStageError(domain.FailureMicUnavailable, err)
	}
	defer func() { _ = mic.Stop() }()

	session, err := s.recognizer.StartSession(ctx, ports.RecognizerConfig{
		SampleRate:     s.cfg.Audio.SampleRate,
		Channels:       s.cfg.Audio.Channels,
		Encoding:       "linear16",
		Language:       s.cfg.Language,
		InterimResults: true,
	})
	if err != nil {
		return "", domain.NewStageError(domain.FailureRecognitionService, err)
	}
	defer func() { _ = session.Close() }()

	gate := newVoiceGate(s.cfg.EnergyThreshold)
	go s.pump(mic, session, gate)

	if onReady != nil {
		onReady()
	}

	var finals []string
	var lastPartial string
	var streamErr error
	start := time.Now()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

listen:
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-session.Events():
			if !ok {
				streamErr = session.Wait()
				break listen
			}
			switch ev.Kind {
			case domain.TranscriptKindFinal:
				if ev.Text != "" {
					finals = append(finals, ev.Text)
				}
				if ev.UtteranceEnd {
					break listen
				}
			case domain.TranscriptKindPartial:
				lastPartial = ev.Text
			}
		case <-ticker.C:
			if len(finals) > 0 && gate.Heard() && time.Since(gate.LastVoice()) >= s.cfg.PauseThreshold {
				break listen
			}
			if time.Since(start) >= s.cfg.PhraseTimeLimit {
				s.log.Debug().Msg("phrase time limit reached")
				break listen
			}
		}
	}

	// Release the microphone before collecting trailing results.
	_ = mic.Stop()
	_ = session.CloseSend()

	deadline := time.After(500 * time.Millisecond)
drain:
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-session.Events():
			if !ok {
				if streamErr == nil {
					streamErr = session.Wait()
				}
				break drain
			}
			if ev.Kind == domain.TranscriptKindFinal && ev.Text != "" {
				finals = append(finals, ev.Text)
			}
		case <-deadline:
			break drain
		}
	}

	text := strings.TrimSpace(strings.Join(finals, " "))
	if text == "" {
		text = strings.TrimSpace(lastPartial)
	}
	if text != "" {
		return text, nil
	}
	if streamErr != nil {
		return "", domain.NewStageError(domain.FailureRecognitionService, streamErr)
	}
	return "", domain.StageErrorf(domain.FailureUnintelligible, "no speech detected")
}

// pump moves microphone bytes into the recognizer until the mic stops. Its
// errors do not decide the capture outcome; the event stream does.
func (s *Stage) pump(mic ports.AudioSession, session ports.RecognizerSession, gate *voiceGate) {
	buf := make([]byte, s.cfg.ChunkSize)
	for {
		n, err := mic.Read(buf)
		if n > 0 {
			gate.Observe(buf[:n])
			if sendErr := session.SendAudio(buf[:n]); sendErr != nil {
				s.log.Debug().Err(sendErr).Msg("audio send stopped")
				return
			}
		}
		if err != nil {
			_ = session.CloseSend()
			return
		}
	}
}
