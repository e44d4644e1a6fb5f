package edgetts

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	trustedToken    = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	outputFormat    = "audio-24khz-48kbitrate-mono-mp3"
)

// Config holds voice synthesis settings. Endpoint is overridable for tests;
// the default is the public read-aloud service.
type Config struct {
	Voice    string
	Endpoint string
}

// Client implements ports.SynthesisClient over the edge read-aloud websocket
// protocol: one speech.config message, one SSML message, then binary audio
// frames until a turn.end marker.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.Voice == "" {
		cfg.Voice = "th-TH-PremwadeeNeural"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return &Client{cfg: cfg}
}

func (c *Client) Synthesize(ctx context.Context, text string, dst io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("nothing to synthesize")
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	wsURL := c.cfg.Endpoint + "?TrustedClientToken=" + trustedToken + "&ConnectionId=" + requestID

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect to synthesis service: %w", err)
	}
	defer conn.Close()

	// The service hangs up silently on protocol mistakes; a deadline turns
	// that into an error instead of a stuck stage.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watchDone:
		}
	}()

	timestamp := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")

	speechConfig := "X-Timestamp:" + timestamp + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + outputFormat + `"}}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfig)); err != nil {
		return fmt.Errorf("send speech config: %w", err)
	}

	ssml := "X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + timestamp + "\r\n" +
		"Path:ssml\r\n\r\n" +
		ssmlDocument(c.cfg.Voice, text)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssml)); err != nil {
		return fmt.Errorf("send ssml: %w", err)
	}

	wrote := false
	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read synthesis frame: %w", err)
		}

		switch kind {
		case websocket.TextMessage:
			if strings.Contains(string(payload), "Path:turn.end") {
				if !wrote {
					return errors.New("synthesis produced no audio")
				}
				return nil
			}
		case websocket.BinaryMessage:
			audio, ok := audioPayload(payload)
			if !ok {
				continue
			}
			if len(audio) == 0 {
				continue
			}
			if _, err := dst.Write(audio); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
			wrote = true
		}
	}
}

// audioPayload splits a binary frame into header and audio. The first two
// bytes carry the big-endian header length; only frames whose header names
// the audio path carry playable bytes.
func audioPayload(frame []byte) ([]byte, bool) {
	if len(frame) < 2 {
		return nil, false
	}
	headerLen := int(binary.BigEndian.Uint16(frame[:2]))
	if len(frame) < 2+headerLen {
		return nil, false
	}
	// Match the exact path; audio.metadata frames share the prefix.
	header := string(frame[2 : 2+headerLen])
	isAudio := false
	for _, line := range strings.Split(header, "\r\n") {
		if strings.TrimSpace(line) == "Path:audio" {
			isAudio = true
			break
		}
	}
	if !isAudio {
		return nil, false
	}
	return frame[2+headerLen:], true
}

func ssmlDocument(voice string, text string) string {
	return `<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>` +
		`<voice name='` + voice + `'>` + escapeXML(text) + `</voice></speak>`
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(text string) string {
	return xmlEscaper.Replace(text)
}
