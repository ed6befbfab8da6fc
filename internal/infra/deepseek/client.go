// Package deepseek is the chat-completion backend behind the AI rewrite
// feature and the /api/chat proxy. The API key lives here, server-side,
// and never reaches a client.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fankeji/debtbook/internal/domain"
)

// Message is one chat turn in the upstream wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config controls the upstream connection.
type Config struct {
	BaseURL string        // API root, no trailing slash
	APIKey  string        // bearer token
	Model   string        // completion model name
	Timeout time.Duration // per-request ceiling
}

// DefaultConfig returns the stock DeepSeek settings.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
		Timeout: 30 * time.Second,
	}
}

// Client calls the chat-completions API.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// New creates a client. A zero Timeout falls back to the default.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// ChatCompletion sends a system prompt plus message history upstream and
// returns the raw completion object. Upstream errors are unwrapped into
// their message text; transport failures and unparseable non-2xx bodies
// come back as ErrChatUnavailable.
func (c *Client) ChatCompletion(ctx context.Context, systemPrompt string, messages []Message) (json.RawMessage, error) {
	if systemPrompt == "" {
		systemPrompt = "You are a helpful assistant."
	}
	payload := map[string]any{
		"model":       c.cfg.Model,
		"messages":    append([]Message{{Role: "system", Content: systemPrompt}}, messages...),
		"temperature": 0.7,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Str("request_id", reqID).Err(err).Msg("chat completion transport failure")
		return nil, fmt.Errorf("%w: %v", domain.ErrChatUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrChatUnavailable, err)
	}

	c.log.Debug().
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("chat completion")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := errorMessage(raw); msg != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrChatUnavailable, msg)
		}
		return nil, fmt.Errorf("%w: upstream status %d", domain.ErrChatUnavailable, resp.StatusCode)
	}
	return raw, nil
}

// Complete implements domain.ChatCompleter: one user prompt in, the
// generated text out. An answer without the choices[0].message.content
// path yields "" and no error.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	raw, err := c.ChatCompletion(ctx, systemPrompt, []Message{{Role: "user", Content: userPrompt}})
	if err != nil {
		return "", err
	}
	return ExtractContent(raw), nil
}

// ExtractContent pulls choices[0].message.content out of a completion
// object. Absence of the path is an empty string, not an error.
func ExtractContent(raw []byte) string {
	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &completion); err != nil {
		return ""
	}
	if len(completion.Choices) == 0 {
		return ""
	}
	return completion.Choices[0].Message.Content
}

// errorMessage digs the error text out of a failure body. The field is
// either a string or an object with a message.
func errorMessage(raw []byte) string {
	var asString struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &asString); err == nil && asString.Error != "" {
		return asString.Error
	}
	var asObject struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.Error.Message
	}
	return ""
}
