// Package guardian implements the context guardian: a background polling loop
// that watches foreground-application context, warns when a guarded contact
// shows up in a monitored messaging app, and scores semantic drift of the
// on-screen context against a user-declared goal.
//
// The supervisor owns the contact guard and the drift monitor; external
// collaborators (context provider, embedder, notifier) are passed in as
// interfaces it does not own.
package guardian

import (
	"time"
)

// =============================================================================
// EXTERNAL COLLABORATOR INTERFACES
// =============================================================================

// ContextSnapshot is one observation of the foreground context.
// Created fresh per poll tick; never mutated.
type ContextSnapshot struct {
	AppName            string
	WindowTitle        string
	FocusedElementText string
}

// ContextProvider supplies the current foreground context on demand.
// A failed read is transient; callers skip the tick and retry.
type ContextProvider interface {
	CurrentSnapshot() (ContextSnapshot, error)
}

// Notifier receives intervention text for display. Fire-and-forget; the
// guardian never observes a result.
type Notifier interface {
	Notify(text string)
}

// =============================================================================
// GUARDED CONTACTS
// =============================================================================

// GuardedContact is a blocklisted person. Matching is case-insensitive
// substring on Name.
type GuardedContact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CustomNudge string `json:"custom_nudge,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// =============================================================================
// GOAL AND DRIFT STATE
// =============================================================================

// Goal is the user's declared focus goal. While Embedding is nil, drift
// checks are disabled.
type Goal struct {
	Text      string
	Embedding []float32
}

// =============================================================================
// FIXED TUNING
// =============================================================================

const (
	// DefaultDriftThreshold is the similarity below which context counts as
	// drifting.
	DefaultDriftThreshold = 0.4

	// DefaultCooldown is the minimum gap between drift warnings for the same
	// unresolved drift.
	DefaultCooldown = 600 * time.Second

	// DefaultGracePeriod is the window left before a new warning can fire
	// after the user restores focus.
	DefaultGracePeriod = 60 * time.Second

	// minContextLen skips drift checks on context strings too short to be
	// meaningful.
	minContextLen = 3

	// ContactPollInterval is the fast cadence used when only
	// contact-guarding is relevant.
	ContactPollInterval = 500 * time.Millisecond

	// DriftPollInterval is the slower cadence used while a goal is active,
	// bounding embedding call volume.
	DriftPollInterval = 2 * time.Second
)
