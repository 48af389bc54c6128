package router

import (
	"context"

	"github.com/Omkar399/project-z/internal/reasoning"
)

const directSystemPrompt = `You are a helpful personal desktop assistant. Be concise.`

// DirectStrategy passes the question straight to the model with no external
// context. Used only for questions classified General.
type DirectStrategy struct {
	llm reasoning.Client
}

// NewDirectStrategy creates the direct strategy.
func NewDirectStrategy(llm reasoning.Client) *DirectStrategy {
	return &DirectStrategy{llm: llm}
}

// Answer asks the model directly.
func (s *DirectStrategy) Answer(ctx context.Context, q Question, _ []string) (string, error) {
	return s.llm.Complete(ctx, reasoning.CompletionRequest{
		System:      directSystemPrompt,
		Prompt:      q.Text,
		History:     q.History,
		MaxTokens:   1024,
		Temperature: 0.7,
	})
}
