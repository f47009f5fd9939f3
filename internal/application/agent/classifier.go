// Package agent wraps the language-model calls of the pipeline: the
// relevance classifier, the intent extractor, and the small-talk
// responder. Each issues exactly one completion call per invocation and
// converts every failure into a safe default instead of an error.
package agent

import (
	"context"
	"fmt"

	"secondbrain/agent/internal/adapter/gateway/llm"
	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/domain/conversation"
	"secondbrain/agent/internal/domain/intent"
)

// Classifier decides whether a message belongs to this domain.
type Classifier struct {
	gateway llm.CompletionGateway
	model   string
	logger  app.Logger
}

// NewClassifier creates a classifier calling the given backend model.
func NewClassifier(gateway llm.CompletionGateway, model string) *Classifier {
	return &Classifier{
		gateway: gateway,
		model:   model,
		logger:  app.GetLogger(),
	}
}

// Classify issues one completion call and parses the verdict. Any call
// or parse failure yields relevant=false with the failure as the
// reason: an unparseable response is never treated as relevant.
func (c *Classifier) Classify(ctx context.Context, message string, history []conversation.Entry) intent.Verdict {
	resp, err := c.gateway.Complete(ctx, llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			{Role: "system", Content: fmt.Sprintf(classifierPrompt, FormatTranscript(history))},
			{Role: "user", Content: "User message: " + message},
		},
	})
	if err != nil {
		c.logger.Error("relevance check failed: %v", err)
		return intent.Verdict{Relevant: false, Reason: "failed to process response"}
	}

	verdict, err := intent.ParseVerdict(resp.Text)
	if err != nil {
		c.logger.Error("relevance verdict unparseable: %v", err)
		return intent.Verdict{Relevant: false, Reason: "failed to parse response"}
	}
	return verdict
}
