package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/studybuddy/studybuddy-api/pkg/config"
)

// Failure classes for the generation capability. Callers map these onto the
// public error taxonomy; the client never retries beyond its configured
// budget and never interprets payload semantics.
var (
	ErrNotConfigured = errors.New("genai: api key not configured")
	ErrAuth          = errors.New("genai: credential rejected")
	ErrQuota         = errors.New("genai: rate or billing limit reached")
	ErrUnavailable   = errors.New("genai: service unavailable")
	ErrMalformed     = errors.New("genai: malformed model output")
)

// Client obtains schema-constrained structured output from a text-generation
// service. Implementations must be safe for concurrent use.
type Client interface {
	// GenerateJSON sends the system and user prompts together with a JSON
	// schema the output must conform to, and returns the raw structured
	// payload. The returned bytes are untrusted until validated.
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (json.RawMessage, error)
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	cfg        config.OpenAIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIClient builds a client from configuration. A missing API key is
// not an error here: calls fail fast with ErrNotConfigured so the caller can
// report a configuration problem without dialing out.
func NewOpenAIClient(cfg config.OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Configured reports whether a credential is present.
func (c *OpenAIClient) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// GenerateJSON implements Client against /v1/chat/completions.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchemaSpec{Name: schemaName, Strict: true, Schema: schema},
		},
	}

	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}

		raw, err := c.doOnce(ctx, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		// Only availability failures are worth another attempt.
		if !errors.Is(err, ErrUnavailable) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		c.logger.Warn("generation request retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, lastErr
}

func (c *OpenAIClient) doOnce(ctx context.Context, payload chatRequest) (json.RawMessage, error) {
	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyHTTPError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response envelope: %v", ErrMalformed, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformed)
	}

	content := parsed.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: completion is not valid JSON", ErrMalformed)
	}
	return json.RawMessage(content), nil
}

func (c *OpenAIClient) classifyHTTPError(status int, body []byte) error {
	var parsed apiError
	_ = json.Unmarshal(body, &parsed)
	message := parsed.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: http %d: %s", ErrAuth, status, message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d: %s", ErrQuota, status, message)
	case strings.Contains(message, "quota") || strings.Contains(message, "billing"):
		return fmt.Errorf("%w: http %d: %s", ErrQuota, status, message)
	case status >= 500:
		return fmt.Errorf("%w: http %d: %s", ErrUnavailable, status, message)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrMalformed, status, message)
	}
}
