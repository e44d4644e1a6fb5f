package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"voicehud/internal/domain"
	"voicehud/internal/ports"
)

// Config holds Deepgram account and model settings. Per-utterance streaming
// parameters arrive through ports.RecognizerConfig instead.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
}

// Recognizer implements ports.Recognizer against the Deepgram live
// transcription websocket.
type Recognizer struct {
	cfg Config
}

func NewRecognizer(cfg Config) *Recognizer {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Recognizer{cfg: cfg}
}

func (r *Recognizer) StartSession(ctx context.Context, cfg ports.RecognizerConfig) (ports.RecognizerSession, error) {
	if strings.TrimSpace(r.cfg.APIKey) == "" {
		return nil, errors.New("deepgram api key is not configured")
	}

	wsURL, err := listenURL(r.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("connect to recognition websocket: %w", err)
	}

	session := &listenSession{
		conn:       conn,
		events:     make(chan domain.TranscriptEvent, 64),
		audio:      make(chan []byte, 32),
		sendClosed: make(chan struct{}),
		done:       make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = session.Close()
		case <-session.done:
		}
	}()

	return session, nil
}

// listenSession never closes the audio channel: end of input is signalled
// through sendClosed so a sender blocked on a full buffer unblocks with an
// error instead of racing a close.
type listenSession struct {
	conn *websocket.Conn

	events     chan domain.TranscriptEvent
	audio      chan []byte
	sendClosed chan struct{}
	done       chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
}

func (s *listenSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	select {
	case <-s.sendClosed:
		return errors.New("audio stream is already closed")
	default:
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.sendClosed:
		return errors.New("audio stream is already closed")
	case <-s.done:
		if err := s.sessionErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *listenSession) CloseSend() error {
	s.closeSendOnce.Do(func() { close(s.sendClosed) })
	return nil
}

func (s *listenSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *listenSession) Wait() error {
	<-s.done
	return s.sessionErr()
}

func (s *listenSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.sessionErr()
}

func (s *listenSession) sessionErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// setErr keeps the first failure only; normal websocket closes are not
// failures.
func (s *listenSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *listenSession) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case chunk := <-s.audio:
			if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				s.setErr(fmt.Errorf("send audio: %w", err))
				return
			}
		case <-s.sendClosed:
			// Flush audio queued before the close, then end the stream.
			for {
				select {
				case chunk := <-s.audio:
					if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
						s.setErr(fmt.Errorf("send audio: %w", err))
						return
					}
				default:
					if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
						s.setErr(fmt.Errorf("close audio stream: %w", err))
					}
					return
				}
			}
		}
	}
}

func (s *listenSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("read recognition event: %w", err))
			return
		}

		var msg listenMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		if strings.EqualFold(msg.Type, "Error") {
			reason := strings.TrimSpace(msg.Message)
			if reason == "" {
				reason = "recognition service returned an unknown error"
			}
			s.setErr(errors.New(reason))
			return
		}

		text := msg.transcript()
		if text == "" {
			// Deepgram sends empty results during silence; speech_final on
			// an empty result still ends the utterance.
			if msg.SpeechFinal {
				s.emit(domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, UtteranceEnd: true})
			}
			continue
		}

		event := domain.TranscriptEvent{Text: text, UtteranceEnd: msg.SpeechFinal}
		if msg.IsFinal || msg.SpeechFinal {
			event.Kind = domain.TranscriptKindFinal
		} else {
			event.Kind = domain.TranscriptKindPartial
		}
		s.emit(event)
	}
}

func (s *listenSession) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
	}
}

type listenMessage struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (m listenMessage) transcript() string {
	if len(m.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(m.Channel.Alternatives[0].Transcript)
}

func listenURL(providerCfg Config, sessionCfg ports.RecognizerConfig) (string, error) {
	base := strings.TrimSpace(providerCfg.APIBaseURL)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	u, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid recognition api base url: %w", err)
	}

	if sessionCfg.Encoding == "" {
		sessionCfg.Encoding = "linear16"
	}
	if sessionCfg.SampleRate <= 0 {
		sessionCfg.SampleRate = 16000
	}
	if sessionCfg.Channels <= 0 {
		sessionCfg.Channels = 1
	}

	query := u.Query()
	query.Set("model", providerCfg.Model)
	query.Set("encoding", sessionCfg.Encoding)
	query.Set("sample_rate", strconv.Itoa(sessionCfg.SampleRate))
	query.Set("channels", strconv.Itoa(sessionCfg.Channels))
	query.Set("interim_results", strconv.FormatBool(sessionCfg.InterimResults))
	query.Set("smart_format", strconv.FormatBool(providerCfg.SmartFormat))
	if sessionCfg.Language != "" {
		query.Set("language", sessionCfg.Language)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
