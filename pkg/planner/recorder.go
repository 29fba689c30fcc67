package planner

import (
	"context"
	"time"

	"copycat-api/pkg/actionplan"
)

// ConversationRecorder captures prompt/response pairs for debugging and cost tracking.
type ConversationRecorder interface {
	RecordConversation(ctx context.Context, rec ConversationRecord) error
}

// ConversationRecord describes one planning run.
type ConversationRecord struct {
	RunID            string
	SessionID        string
	Source           Source
	ModelName        string
	PromptDigest     string
	SystemPrompt     string
	Prompt           string
	Response         string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Method           actionplan.Method
	Kept             []actionplan.Action
	Dropped          []actionplan.Action
	Err              string
	Duration         time.Duration
	Timestamp        time.Time
}

type noopConversationRecorder struct{}

func (noopConversationRecorder) RecordConversation(context.Context, ConversationRecord) error {
	return nil
}

// Option customises BasicPlanner construction.
type Option func(*BasicPlanner)

// WithConversationRecorder injects a recorder used to persist planning runs.
func WithConversationRecorder(recorder ConversationRecorder) Option {
	return func(p *BasicPlanner) {
		if recorder == nil {
			p.conversations = noopConversationRecorder{}
			return
		}
		p.conversations = recorder
	}
}

// WithClock overrides the time source used for throttling and timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *BasicPlanner) {
		if now != nil {
			p.now = now
		}
	}
}
