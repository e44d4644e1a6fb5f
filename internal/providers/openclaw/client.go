package openclaw

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"voicehud/internal/domain"
)

// Config holds chat backend settings. The backend is any OpenAI-compatible
// completion endpoint, typically a local gateway.
type Config struct {
	URL         string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Client implements ports.Responder over the chat completions API.
type Client struct {
	api openai.Client
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:4000/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "openclaw"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.URL),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &Client{api: openai.NewClient(opts...), cfg: cfg}
}

// Respond sends the conversation so far plus the new user utterance and
// returns the assistant reply. history is a read-only snapshot; the caller
// owns appending the exchange afterwards.
func (c *Client) Respond(ctx context.Context, userText string, history []domain.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userText))

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.StageErrorf(domain.FailureBadResponse, "completion has no choices")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", domain.StageErrorf(domain.FailureBadResponse, "completion content is empty")
	}
	return reply, nil
}

// classify maps transport-level failures onto the kinds the loop
// distinguishes: unreachable backend, deadline overrun, everything else a
// bad response.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewStageError(domain.FailureTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.NewStageError(domain.FailureTimeout, err)
		}
		return domain.NewStageError(domain.FailureConnection, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.NewStageError(domain.FailureConnection, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return domain.NewStageError(domain.FailureConnection, err)
	}
	if strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout") {
		return domain.NewStageError(domain.FailureTimeout, err)
	}
	return domain.NewStageError(domain.FailureBadResponse, err)
}
