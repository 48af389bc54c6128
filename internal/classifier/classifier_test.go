package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/Omkar399/project-z/internal/reasoning"
)

// =============================================================================
// MOCK REASONING CLIENT
// =============================================================================

type mockLLM struct {
	response string
	err      error

	lastRequest reasoning.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, req reasoning.CompletionRequest) (string, error) {
	m.lastRequest = req
	return m.response, m.err
}

func (m *mockLLM) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

// =============================================================================
// CLASSIFY TESTS
// =============================================================================

func TestClassify_ValidJSON(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"category":"calendar_create","confidence":0.95}`}
	c := New(llm)

	result, err := c.Classify(context.Background(), "schedule lunch with Sam tomorrow")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if result.Intent != IntentCalendarCreate {
		t.Errorf("expected intent %s, got %s", IntentCalendarCreate, result.Intent)
	}
	if result.Confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %f", result.Confidence)
	}
}

func TestClassify_CodeFencedJSON(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: "```json\n{\"category\":\"clipboard\",\"confidence\":0.8}\n```"}
	c := New(llm)

	result, err := c.Classify(context.Background(), "what was that tracking number")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if result.Intent != IntentClipboard {
		t.Errorf("expected intent %s, got %s", IntentClipboard, result.Intent)
	}
}

func TestClassify_NonJSON(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: "I think this is about the calendar."}
	c := New(llm)

	_, err := c.Classify(context.Background(), "what's on my schedule")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestClassify_UnknownCategory(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"category":"weather","confidence":0.9}`}
	c := New(llm)

	// Unknown category must be a failure, not a silent General.
	_, err := c.Classify(context.Background(), "will it rain")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for unknown category, got %v", err)
	}
}

func TestClassify_CompletionFailure(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{err: &reasoning.RemoteError{Kind: reasoning.FailureTimeout, Op: "complete", Err: errors.New("deadline")}}
	c := New(llm)

	_, err := c.Classify(context.Background(), "anything")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on remote failure, got %v", err)
	}
}

func TestClassify_UsesLowTemperatureAndSmallBudget(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"category":"general","confidence":0.5}`}
	c := New(llm)

	if _, err := c.Classify(context.Background(), "hello"); err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if llm.lastRequest.Temperature != 0.0 {
		t.Errorf("expected temperature 0.0, got %f", llm.lastRequest.Temperature)
	}
	if llm.lastRequest.MaxTokens != maxTokens {
		t.Errorf("expected max tokens %d, got %d", maxTokens, llm.lastRequest.MaxTokens)
	}
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"category":"general","confidence":1.7}`}
	c := New(llm)

	result, err := c.Classify(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %f", result.Confidence)
	}
}

func TestParseIntent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Intent
		ok   bool
	}{
		{"clipboard", IntentClipboard, true},
		{"calendar_read", IntentCalendarRead, true},
		{"calendar_create", IntentCalendarCreate, true},
		{"general", IntentGeneral, true},
		{" General ", IntentGeneral, true},
		{"CALENDAR_READ", IntentCalendarRead, true},
		{"calendar", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := parseIntent(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseIntent(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
