package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"

	anthropicVersion = "2023-06-01"
	computerUseBeta  = "computer-use-2025-01-24"

	// ToolTypeComputer is the capability version declared in the tool schema.
	ToolTypeComputer = "computer_20250124"

	// ToolNameComputer is the fixed tool name the model invokes.
	ToolNameComputer = "computer"

	defaultTimeout = 120 * time.Second

	// maxResponseBody caps how much of an error body we read back.
	maxResponseBody = 1 << 20
)

// AnthropicClient calls the Anthropic Messages API with the computer-use
// beta enabled.
type AnthropicClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures an AnthropicClient.
type Option func(*AnthropicClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(base string) Option {
	return func(c *AnthropicClient) {
		trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *AnthropicClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewAnthropicClient creates a Messages API client.
func NewAnthropicClient(apiKey string, opts ...Option) *AnthropicClient {
	c := &AnthropicClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComputerToolFor builds the tool schema for a display of the given size.
func ComputerToolFor(widthPx, heightPx int) ComputerTool {
	return ComputerTool{
		Type:            ToolTypeComputer,
		Name:            ToolNameComputer,
		DisplayWidthPx:  widthPx,
		DisplayHeightPx: heightPx,
		DisplayNumber:   1,
	}
}

// CreateMessage sends one Messages API request and decodes the reply.
// Non-2xx statuses surface as *TransportError (status + body); bodies
// that fail to decode surface as *ProtocolError.
func (c *AnthropicClient) CreateMessage(ctx context.Context, req *MessagesRequest) (*MessagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", anthropicVersion)
	httpReq.Header.Set("Anthropic-Beta", computerUseBeta)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out MessagesResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &ProtocolError{Err: err}
	}

	slog.Debug("endpoint call completed",
		"model", req.Model,
		"messages", len(req.Messages),
		"stop_reason", out.StopReason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &out, nil
}
