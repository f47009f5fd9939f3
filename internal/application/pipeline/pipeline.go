package pipeline

import (
	"context"
	"sync"

	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/app/state"
	"secondbrain/agent/internal/domain/conversation"
	"secondbrain/agent/internal/domain/intent"
)

// RelevanceClassifier decides whether a message belongs to this domain.
type RelevanceClassifier interface {
	Classify(ctx context.Context, message string, history []conversation.Entry) intent.Verdict
}

// IntentExtractor turns a message plus history into an action
// descriptor.
type IntentExtractor interface {
	Extract(ctx context.Context, message string, history []conversation.Entry) intent.Descriptor
}

// Responder produces the reply for messages outside the domain.
type Responder interface {
	Reply(ctx context.Context, message string, history []conversation.Entry) string
}

// Pipeline handles one inbound chat message end to end. Given
// (chat ID, text) it produces exactly one reply and records both sides
// of the turn in conversation state.
type Pipeline struct {
	state      *state.Store
	classifier RelevanceClassifier
	extractor  IntentExtractor
	smallTalk  Responder
	dispatcher *Dispatcher
	logger     app.Logger

	chatLocks sync.Map // chat ID -> *sync.Mutex
}

// New wires a pipeline.
func New(st *state.Store, classifier RelevanceClassifier, extractor IntentExtractor, smallTalk Responder, dispatcher *Dispatcher) *Pipeline {
	return &Pipeline{
		state:      st,
		classifier: classifier,
		extractor:  extractor,
		smallTalk:  smallTalk,
		dispatcher: dispatcher,
		logger:     app.GetLogger(),
	}
}

func (p *Pipeline) lockChat(chatID int64) func() {
	v, _ := p.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// HandleMessage runs the pipeline for one inbound message and returns
// the reply text. It never returns an empty reply and never panics:
// internal failures surface as the apology line. Handling is serialized
// per chat, so simultaneous requests for the same chat cannot interleave
// on conversation state.
func (p *Pipeline) HandleMessage(ctx context.Context, chatID int64, text string) string {
	unlock := p.lockChat(chatID)
	defer unlock()

	p.state.Append(chatID, conversation.RoleUser, text, conversation.KindText)
	// History must include the triggering message so classification and
	// extraction see it in context.
	history := p.state.History(chatID)

	reply := p.resolve(ctx, chatID, text, history)
	if reply == "" {
		reply = replyApology
	}
	p.state.Append(chatID, conversation.RoleAssistant, reply, conversation.KindText)
	return reply
}

func (p *Pipeline) resolve(ctx context.Context, chatID int64, text string, history []conversation.Entry) string {
	// Confirmation gate: a pending action is consumed by the next turn.
	// TakePending drops the record either way, so a follow-up that is
	// neither yes nor no abandons the pending action and flows through
	// the normal pipeline.
	if pending, ok := p.state.TakePending(chatID); ok {
		switch parseConfirmation(text) {
		case confirmYes:
			p.logger.Info("chat %d confirmed pending %s", chatID, pending.Intent)
			return p.dispatcher.Execute(ctx, pending)
		case confirmNo:
			p.logger.Info("chat %d declined pending %s", chatID, pending.Intent)
			return "Okay, I won't do that."
		}
	}

	verdict := p.classifier.Classify(ctx, text, history)
	if !verdict.Relevant {
		p.logger.Debug("chat %d message not relevant: %s", chatID, verdict.Reason)
		return p.smallTalk.Reply(ctx, text, history)
	}

	desc := p.extractor.Extract(ctx, text, history)
	return p.dispatcher.Dispatch(ctx, chatID, desc)
}
