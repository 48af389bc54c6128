// Package router implements the agentic query router: a classification-driven
// dispatcher over four specialized answer strategies with a defined fallback
// chain. Strategy failures become user-visible text, never exceptions to the
// caller, and there is no double-dispatch: one classification, one strategy.
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/Omkar399/project-z/internal/classifier"
	"github.com/Omkar399/project-z/internal/logging"
	"github.com/Omkar399/project-z/internal/reasoning"
)

// Question is one routed query: the text plus optional prior turns.
type Question struct {
	Text    string
	History []reasoning.Message
}

// Strategy produces a plain-text answer for a question.
// clipboardContext carries the ranked snippets available to the clipboard-RAG
// path; other strategies ignore it.
type Strategy interface {
	Answer(ctx context.Context, q Question, clipboardContext []string) (string, error)
}

// IntentClassifier classifies a question. Satisfied by *classifier.Classifier.
type IntentClassifier interface {
	Classify(ctx context.Context, question string) (classifier.Classification, error)
}

// Router orchestrates Classifier -> Strategy selection -> fallback.
type Router struct {
	classifier IntentClassifier
	clipboard  Strategy
	calRead    Strategy
	calCreate  Strategy
	direct     Strategy

	mu         sync.Mutex
	processing bool
}

// New creates a Router with explicit strategies.
func New(ic IntentClassifier, clipboard, calRead, calCreate, direct Strategy) *Router {
	return &Router{
		classifier: ic,
		clipboard:  clipboard,
		calRead:    calRead,
		calCreate:  calCreate,
		direct:     direct,
	}
}

// IsProcessing reports whether an answer call is in flight.
// Purely UI feedback; correctness does not depend on it.
func (r *Router) IsProcessing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processing
}

func (r *Router) setProcessing(v bool) {
	r.mu.Lock()
	r.processing = v
	r.mu.Unlock()
}

// Answer routes the question to a strategy and returns its plain-text answer.
// Classification failure falls back to the clipboard-RAG strategy, the safest
// default because it is scoped to user-owned data. A strategy failure is
// converted to a short user-visible message; it is never re-routed.
func (r *Router) Answer(ctx context.Context, q Question, clipboardContext []string) string {
	r.setProcessing(true)
	defer r.setProcessing(false)

	timer := logging.StartTimer(logging.CategoryRouter, "Answer")
	defer timer.Stop()

	strategy := r.clipboard
	name := "clipboard"

	result, err := r.classifier.Classify(ctx, q.Text)
	if err != nil {
		logging.Router("Classification unavailable, falling back to clipboard strategy: %v", err)
	} else {
		switch result.Intent {
		case classifier.IntentClipboard:
			strategy, name = r.clipboard, "clipboard"
		case classifier.IntentCalendarRead:
			strategy, name = r.calRead, "calendar_read"
		case classifier.IntentCalendarCreate:
			strategy, name = r.calCreate, "calendar_create"
		case classifier.IntentGeneral:
			strategy, name = r.direct, "direct"
		}
		logging.Router("Dispatching intent=%s confidence=%.2f strategy=%s", result.Intent, result.Confidence, name)
	}

	answer, err := strategy.Answer(ctx, q, clipboardContext)
	if err != nil {
		logging.Get(logging.CategoryRouter).Error("Strategy %s failed: %v", name, err)
		return failureMessage(err)
	}

	return answer
}

// failureMessage converts a strategy error into a short, specific,
// human-readable message.
func failureMessage(err error) string {
	if re, ok := reasoning.IsRemoteError(err); ok {
		switch re.Kind {
		case reasoning.FailureUnauthorized:
			return "I couldn't reach the assistant service: the API key was rejected. Check your configuration."
		case reasoning.FailureRateLimited:
			return "The assistant service is rate-limiting requests right now. Please try again in a moment."
		case reasoning.FailureTimeout:
			return "The assistant service took too long to respond. Please try again."
		case reasoning.FailureServerError:
			return "The assistant service returned an error. Please try again."
		default:
			return "I couldn't reach the assistant service. Check your network connection and try again."
		}
	}
	return fmt.Sprintf("Sorry, I couldn't answer that: %v", err)
}
