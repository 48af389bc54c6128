// Package classifier maps a free-text question to one of the fixed answer
// intents using a constrained LLM completion. Parsing is strict: anything the
// model returns that is not one of the known categories is a failure, never a
// silent default.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Omkar399/project-z/internal/logging"
	"github.com/Omkar399/project-z/internal/reasoning"
)

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentClipboard      Intent = "clipboard"
	IntentCalendarRead   Intent = "calendar_read"
	IntentCalendarCreate Intent = "calendar_create"
	IntentGeneral        Intent = "general"
)

// Classification is the result of classifying one question.
type Classification struct {
	Intent     Intent
	Confidence float64
}

// ErrUnavailable indicates classification could not produce a usable result.
// This is recoverable: the router falls back to its default strategy.
var ErrUnavailable = errors.New("classification unavailable")

const systemPrompt = `You are a query classifier for a personal desktop assistant.
Classify the user's question into exactly one category:

- "clipboard": asking about previously copied or captured text (tracking numbers, codes, addresses, things they saved)
- "calendar_read": asking what is on their calendar or schedule
- "calendar_create": asking to create, schedule, or book an event or meeting
- "general": anything else

Respond with ONLY a JSON object, no other text:
{"category": "<category>", "confidence": <0.0-1.0>}`

// maxTokens keeps the classification completion small and fast.
const maxTokens = 60

// Classifier wraps the reasoning client for intent classification.
type Classifier struct {
	llm reasoning.Client
}

// New creates a Classifier.
func New(llm reasoning.Client) *Classifier {
	return &Classifier{llm: llm}
}

// classifierResponse is the wire shape the model is instructed to emit.
type classifierResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classify maps a question to an intent with a confidence score.
// Returns ErrUnavailable (wrapped) when the completion is empty, malformed,
// or names an unknown category.
func (c *Classifier) Classify(ctx context.Context, question string) (Classification, error) {
	timer := logging.StartTimer(logging.CategoryClassifier, "Classify")
	defer timer.Stop()

	response, err := c.llm.Complete(ctx, reasoning.CompletionRequest{
		System:      systemPrompt,
		Prompt:      question,
		MaxTokens:   maxTokens,
		Temperature: 0.0,
	})
	if err != nil {
		logging.ClassifierDebug("completion failed: %v", err)
		return Classification{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cleaned := stripCodeFences(response)
	if cleaned == "" {
		return Classification{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	var parsed classifierResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		logging.ClassifierDebug("unparseable completion: %s", cleaned)
		return Classification{}, fmt.Errorf("%w: malformed JSON: %v", ErrUnavailable, err)
	}

	intent, ok := parseIntent(parsed.Category)
	if !ok {
		// Unknown category is a failure, not General - do not silently misroute.
		return Classification{}, fmt.Errorf("%w: unknown category %q", ErrUnavailable, parsed.Category)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	logging.Classifier("Classified intent=%s confidence=%.2f", intent, confidence)
	return Classification{Intent: intent, Confidence: confidence}, nil
}

// parseIntent maps a category string to an Intent.
func parseIntent(category string) (Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "clipboard":
		return IntentClipboard, true
	case "calendar_read":
		return IntentCalendarRead, true
	case "calendar_create":
		return IntentCalendarCreate, true
	case "general":
		return IntentGeneral, true
	default:
		return "", false
	}
}

// stripCodeFences removes markdown code-fence markers the model may wrap
// around its JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
