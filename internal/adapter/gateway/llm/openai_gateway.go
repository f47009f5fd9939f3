package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single completion call when the config does
// not say otherwise. Expiry surfaces as an error and therefore hits the
// callers' fail-closed paths.
const DefaultTimeout = 30 * time.Second

// OpenAIGateway implements CompletionGateway against an
// OpenAI-compatible chat completions API.
type OpenAIGateway struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	timeout    time.Duration
}

// OpenAIOption tweaks the gateway at construction.
type OpenAIOption func(*OpenAIGateway)

// WithBaseURL points the gateway at a different API host. Used for
// compatible backends and for tests.
func WithBaseURL(base string) OpenAIOption {
	return func(g *OpenAIGateway) {
		g.apiURL = base + "/v1/chat/completions"
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(g *OpenAIGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewOpenAIGateway creates a gateway for the hosted API.
func NewOpenAIGateway(apiKey string, opts ...OpenAIOption) *OpenAIGateway {
	g := &OpenAIGateway{
		apiKey:  apiKey,
		apiURL:  "https://api.openai.com/v1/chat/completions",
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// chatRequest is the wire shape of a chat completions call.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the wire shape of the API reply.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete issues one chat completion call.
func (g *OpenAIGateway) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	wireReq := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.ResponseJSON {
		wireReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer httpResp.Body.Close()

	var wireResp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wireResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		if wireResp.Error.Message != "" {
			return nil, fmt.Errorf("completion API error (%d): %s", httpResp.StatusCode, wireResp.Error.Message)
		}
		return nil, fmt.Errorf("completion API returned status %d", httpResp.StatusCode)
	}
	if len(wireResp.Choices) == 0 {
		return nil, fmt.Errorf("completion API returned no choices")
	}

	return &Response{
		Text:       wireResp.Choices[0].Message.Content,
		TokensUsed: wireResp.Usage.TotalTokens,
	}, nil
}
