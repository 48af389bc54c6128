// Package reasoning provides the remote completion and embedding capabilities
// the rest of the system builds on. Providers are selected by configuration;
// callers only see the Client interface and the typed failure taxonomy.
package reasoning

import (
	"context"
	"errors"
	"fmt"
)

// Message is a single prior conversation turn.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	History     []Message
	MaxTokens   int
	Temperature float64
}

// Client is the reasoning capability the core depends on.
// Implementations must not retry automatically; a failed call surfaces as a
// RemoteError and the caller decides what to do.
type Client interface {
	// Complete sends a completion request and returns the generated text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// =============================================================================
// FAILURE TAXONOMY
// =============================================================================

// FailureKind classifies a remote failure.
type FailureKind string

const (
	FailureUnauthorized FailureKind = "unauthorized"
	FailureRateLimited  FailureKind = "rate_limited"
	FailureServerError  FailureKind = "server_error"
	FailureNetworkError FailureKind = "network_error"
	FailureTimeout      FailureKind = "timeout"
)

// RemoteError is a typed remote failure. All provider errors are normalized
// into this type so callers can branch on Kind without knowing the provider.
type RemoteError struct {
	Kind FailureKind
	Op   string // "complete" or "embed"
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("reasoning %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is a RemoteError, returning it if so.
func IsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// remoteErr builds a RemoteError for the given operation.
func remoteErr(op string, kind FailureKind, err error) *RemoteError {
	return &RemoteError{Kind: kind, Op: op, Err: err}
}

// kindFromStatus maps an HTTP status code to a failure kind.
func kindFromStatus(status int) FailureKind {
	switch {
	case status == 401 || status == 403:
		return FailureUnauthorized
	case status == 429:
		return FailureRateLimited
	case status >= 500:
		return FailureServerError
	default:
		return FailureNetworkError
	}
}
