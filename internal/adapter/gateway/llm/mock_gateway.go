package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway is a scripted CompletionGateway for tests: queued
// responses are returned in order, and errors can be forced to exercise
// fail-closed paths.
type MockGateway struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []Request
}

// NewMockGateway creates an empty mock. With no queued responses and no
// forced error it fails, so a test that forgets to script it notices.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Queue appends responses to be returned by subsequent Complete calls.
func (g *MockGateway) Queue(responses ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses = append(g.responses, responses...)
}

// Fail makes every Complete call return err until cleared with Fail(nil).
func (g *MockGateway) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Calls returns the requests seen so far.
func (g *MockGateway) Calls() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, len(g.calls))
	copy(out, g.calls)
	return out
}

// Complete pops the next scripted response.
func (g *MockGateway) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)

	if g.err != nil {
		return nil, g.err
	}
	if len(g.responses) == 0 {
		return nil, fmt.Errorf("mock gateway: no scripted response")
	}
	text := g.responses[0]
	g.responses = g.responses[1:]
	return &Response{Text: text, TokensUsed: len(text) / 4}, nil
}
