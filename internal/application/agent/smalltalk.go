package agent

import (
	"context"
	"fmt"

	"secondbrain/agent/internal/adapter/gateway/llm"
	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/domain/conversation"
)

// smallTalkMaxTokens keeps off-topic replies short.
const smallTalkMaxTokens = 200

// smallTalkFallback is the reply when even the small-talk call fails.
const smallTalkFallback = "I apologize, but I'm having trouble generating a response right now. Please try again."

// SmallTalk produces a brief conversational reply for messages outside
// the domain.
type SmallTalk struct {
	gateway llm.CompletionGateway
	model   string
	logger  app.Logger
}

// NewSmallTalk creates a small-talk responder.
func NewSmallTalk(gateway llm.CompletionGateway, model string) *SmallTalk {
	return &SmallTalk{
		gateway: gateway,
		model:   model,
		logger:  app.GetLogger(),
	}
}

// Reply generates the response text. Failures degrade to a fixed
// apology line so the user never gets silence.
func (s *SmallTalk) Reply(ctx context.Context, message string, history []conversation.Entry) string {
	resp, err := s.gateway.Complete(ctx, llm.Request{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "system", Content: fmt.Sprintf(smallTalkPrompt, message, FormatTranscript(history))},
			{Role: "user", Content: message},
		},
		MaxTokens: smallTalkMaxTokens,
	})
	if err != nil {
		s.logger.Error("small talk response failed: %v", err)
		return smallTalkFallback
	}
	return resp.Text
}
