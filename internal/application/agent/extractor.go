package agent

import (
	"context"
	"fmt"
	"time"

	"secondbrain/agent/internal/adapter/gateway/llm"
	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/domain/conversation"
	"secondbrain/agent/internal/domain/intent"
)

// extractorMaxTokens caps the structured response; the schema fits well
// within it.
const extractorMaxTokens = 500

// Extractor turns a message plus history into a structured action
// descriptor.
type Extractor struct {
	gateway llm.CompletionGateway
	model   string
	logger  app.Logger
	now     func() time.Time
}

// NewExtractor creates an extractor calling the given backend model.
func NewExtractor(gateway llm.CompletionGateway, model string) *Extractor {
	return &Extractor{
		gateway: gateway,
		model:   model,
		logger:  app.GetLogger(),
		now:     time.Now,
	}
}

// Extract issues one completion call and normalizes the response. On
// call failure or malformed JSON the descriptor comes back with
// intent=unknown and confirmation forced on: the system never silently
// executes an action it could not confidently parse.
func (e *Extractor) Extract(ctx context.Context, message string, history []conversation.Entry) intent.Descriptor {
	system := fmt.Sprintf(extractorPrompt,
		e.now().Format("2006-01-02 15:04"),
		FormatTranscript(history),
	)

	resp, err := e.gateway.Complete(ctx, llm.Request{
		Model: e.model,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: message},
		},
		MaxTokens:    extractorMaxTokens,
		ResponseJSON: true,
	})
	if err != nil {
		e.logger.Error("intent extraction failed: %v", err)
		return intent.Unknown(err.Error())
	}

	d := intent.ParseDescriptor(resp.Text)
	if d.Err != "" {
		e.logger.Warn("intent response normalized to unknown: %s", d.Err)
	}
	return d
}
