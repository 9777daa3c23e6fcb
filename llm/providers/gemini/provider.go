// Package gemini implements the generation client against the Gemini REST
// API. Authentication uses the x-goog-api-key header; streaming uses the
// SSE form of streamGenerateContent.
package gemini

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

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config holds the connection settings for one Gemini client.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client talks to the Gemini generateContent endpoints.
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
		cfg.Model = "gemini-2.5-flash-lite"
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("provider", "gemini")),
	}
}

func (c *Client) Name() string  { return "gemini" }
func (c *Client) Model() string { return c.cfg.Model }

// Gemini wire types.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) buildHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// convertMessages maps the unified roles onto Gemini's user/model contents.
func convertMessages(messages []llm.Message, systemInstruction string) geminiRequest {
	var body geminiRequest
	if systemInstruction != "" {
		body.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		}
	}
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		body.Contents = append(body.Contents, geminiContent{
			Role:  string(m.Role),
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	return body
}

func (c *Client) Complete(ctx context.Context, messages []llm.Message, systemInstruction string) (string, error) {
	body := convertMessages(messages, systemInstruction)
	resp, err := c.generate(ctx, "generateContent", body)
	if err != nil {
		return "", err
	}
	return candidateText(resp)
}

// CompleteJSON requests application/json output and decodes the single
// candidate into out.
func (c *Client) CompleteJSON(ctx context.Context, prompt, systemInstruction string, out any) error {
	body := convertMessages([]llm.Message{{Role: llm.RoleUser, Content: prompt}}, systemInstruction)
	body.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}

	resp, err := c.generate(ctx, "generateContent", body)
	if err != nil {
		return err
	}
	text, err := candidateText(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &llm.Error{
			Code:     llm.ErrUpstreamError,
			Message:  fmt.Sprintf("malformed JSON response: %v", err),
			Provider: c.Name(),
		}
	}
	return nil
}

func (c *Client) generate(ctx context.Context, method string, body geminiRequest) (*geminiResponse, error) {
	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, method)

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

	var out geminiResponse
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

// Stream calls streamGenerateContent with alt=sse and forwards each text
// delta to onChunk as it arrives.
func (c *Client) Stream(ctx context.Context, messages []llm.Message, systemInstruction string, onChunk llm.ChunkFunc) error {
	body := convertMessages(messages, systemInstruction)
	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)

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
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk geminiResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		for _, candidate := range chunk.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					onChunk(part.Text)
				}
			}
		}
	}
}

func (c *Client) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1beta/models", strings.TrimRight(c.cfg.BaseURL, "/"))
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	c.buildHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readErrMsg(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("gemini health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

func candidateText(resp *geminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &llm.Error{
			Code:     llm.ErrContentFiltered,
			Message:  "no candidates in response",
			Provider: "gemini",
		}
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp geminiErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", errResp.Error.Message, errResp.Error.Status)
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
