// Package llm defines the language-model boundary: prompt in, text out.
// The returned payload is untrusted text that callers must parse with
// validation, never structurally guaranteed JSON.
package llm

import "context"

// Message is one role-tagged chunk of the prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// ResponseJSON asks the backend for a JSON-object response where
	// the API supports it. Callers still validate the payload.
	ResponseJSON bool
}

// Response is the completion result.
type Response struct {
	Text       string
	TokensUsed int
}

// CompletionGateway abstracts the completion backend. Implementations
// must honor ctx cancellation; a hung backend call must not block a
// chat forever.
type CompletionGateway interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
