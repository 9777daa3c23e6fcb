// Package anthropic implements the generation client against the Claude
// messages REST API. Authentication uses the x-api-key header plus a pinned
// anthropic-version; streaming is SSE with typed events.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/llm"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Config holds the connection settings for one Claude client.
type Config struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Client talks to the Claude messages endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("provider", "anthropic")),
	}
}

func (c *Client) Name() string  { return "anthropic" }
func (c *Client) Model() string { return c.cfg.Model }

// Claude wire types.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
	Stream    bool            `json:"stream,omitempty"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type claudeResponse struct {
	ID      string               `json:"id"`
	Content []claudeContentBlock `json:"content"`
}

type claudeStreamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
}

type claudeErrorResp struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) buildHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
}

// convertMessages maps the unified roles onto Claude's user/assistant
// alternation.
func convertMessages(messages []llm.Message) []claudeMessage {
	out := make([]claudeMessage, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		role := "user"
		if m.Role == llm.RoleModel {
			role = "assistant"
		}
		out = append(out, claudeMessage{Role: role, Content: m.Content})
	}
	return out
}

func (c *Client) Complete(ctx context.Context, messages []llm.Message, systemInstruction string) (string, error) {
	body := claudeRequest{
		Model:     c.cfg.Model,
		System:    systemInstruction,
		Messages:  convertMessages(messages),
		MaxTokens: c.cfg.MaxTokens,
	}
	resp, err := c.send(ctx, body)
	if err != nil {
		return "", err
	}
	return blockText(resp), nil
}

// CompleteJSON has no native JSON mode to lean on; the instruction is
// appended to the system prompt and code fences are stripped before
// decoding.
func (c *Client) CompleteJSON(ctx context.Context, prompt, systemInstruction string, out any) error {
	system := strings.TrimSpace(systemInstruction + "\nRespond with a single valid JSON object and nothing else.")
	text, err := c.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, system)
	if err != nil {
		return err
	}
	text = stripFences(text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &llm.Error{
			Code:     llm.ErrUpstreamError,
			Message:  fmt.Sprintf("malformed JSON response: %v", err),
			Provider: c.Name(),
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, body claudeRequest) (*claudeResponse, error) {
	payload, _ := json.Marshal(body)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	c.buildHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err, c.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, mapError(resp.StatusCode, readErrMsg(resp.Body), c.Name())
	}

	var out claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrUpstreamError,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   c.Name(),
		}
	}
	return &out, nil
}

// Stream sends a streaming messages request and forwards each text delta to
// onChunk. Claude SSE frames arrive as event/data line pairs; only
// content_block_delta events carry text.
func (c *Client) Stream(ctx context.Context, messages []llm.Message, systemInstruction string, onChunk llm.ChunkFunc) error {
	body := claudeRequest{
		Model:     c.cfg.Model,
		System:    systemInstruction,
		Messages:  convertMessages(messages),
		MaxTokens: c.cfg.MaxTokens,
		Stream:    true,
	}
	payload, _ := json.Marshal(body)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	c.buildHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return transportError(ctx, err, c.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return mapError(resp.StatusCode, readErrMsg(resp.Body), c.Name())
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return transportError(ctx, err, c.Name())
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var event claudeStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		switch event.Type {
		case "content_block_delta":
			if event.Delta != nil && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				onChunk(event.Delta.Text)
			}
		case "message_stop":
			return nil
		}
	}
}

func blockText(resp *claudeResponse) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp claudeErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
	}
	return string(data)
}

func transportError(ctx context.Context, err error, provider string) *llm.Error {
	code := llm.ErrUpstreamError
	if ctx.Err() != nil {
		code = llm.ErrUpstreamTimeout
	}
	return &llm.Error{
		Code:       code,
		Message:    err.Error(),
		HTTPStatus: http.StatusBadGateway,
		Retryable:  true,
		Provider:   provider,
	}
}

func mapError(status int, msg, provider string) *llm.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llm.Error{Code: llm.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusTooManyRequests:
		return &llm.Error{Code: llm.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusBadRequest:
		return &llm.Error{Code: llm.ErrInvalidRequest, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusGatewayTimeout:
		return &llm.Error{Code: llm.ErrUpstreamTimeout, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	default:
		return &llm.Error{Code: llm.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: status >= 500, Provider: provider}
	}
}
