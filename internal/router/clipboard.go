package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/Omkar399/project-z/internal/logging"
	"github.com/Omkar399/project-z/internal/reasoning"
)

// NotFoundSentinel is the fixed string the model must return when the answer
// is not present in the provided context. The model is forbidden from falling
// back to outside knowledge.
const NotFoundSentinel = "I couldn't find that in your captured items."

// contextCharBudget caps the total characters of snippet context handed to
// the model.
const contextCharBudget = 5000

const clipboardSystemPrompt = `You are a personal assistant answering questions strictly from the user's previously captured text snippets.

Rules:
- Answer ONLY from the provided context. Do not use outside knowledge.
- If the answer is not in the context, respond with exactly: "` + NotFoundSentinel + `"
- Be concise and direct.`

// ClipboardStrategy answers from ranked, previously captured text snippets.
// This is the router's default fallback path.
type ClipboardStrategy struct {
	llm reasoning.Client
}

// NewClipboardStrategy creates the clipboard-RAG strategy.
func NewClipboardStrategy(llm reasoning.Client) *ClipboardStrategy {
	return &ClipboardStrategy{llm: llm}
}

// Answer builds a budget-capped context block from the ranked snippets and
// asks the model to answer only from it.
func (s *ClipboardStrategy) Answer(ctx context.Context, q Question, clipboardContext []string) (string, error) {
	block := buildContextBlock(clipboardContext, contextCharBudget)
	if block == "" {
		logging.Get(logging.CategoryStrategy).Debug("clipboard: no snippets available")
		return NotFoundSentinel, nil
	}

	prompt := fmt.Sprintf("Context (captured snippets, most relevant first):\n%s\n\nQuestion: %s", block, q.Text)

	answer, err := s.llm.Complete(ctx, reasoning.CompletionRequest{
		System:      clipboardSystemPrompt,
		Prompt:      prompt,
		History:     q.History,
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

// buildContextBlock greedily appends ranked items until the budget is hit.
func buildContextBlock(snippets []string, budget int) string {
	var sb strings.Builder
	for i, snippet := range snippets {
		snippet = strings.TrimSpace(snippet)
		if snippet == "" {
			continue
		}
		entry := fmt.Sprintf("[%d] %s\n", i+1, snippet)
		if sb.Len()+len(entry) > budget {
			break
		}
		sb.WriteString(entry)
	}
	return strings.TrimSpace(sb.String())
}
