package guardian

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Omkar399/project-z/internal/embedding"
	"github.com/Omkar399/project-z/internal/logging"
)

// DriftMonitor compares on-screen context against the active goal by
// embedding similarity and nudges the user when alignment falls below the
// threshold. Warnings are rate-limited by a cooldown window.
type DriftMonitor struct {
	mu             sync.Mutex
	goal           *Goal
	goalGeneration uint64
	lastWarningAt  time.Time

	threshold float32
	cooldown  time.Duration
	grace     time.Duration

	embedder embedding.Embedder
	notifier Notifier

	now func() time.Time
}

// NewDriftMonitor creates a DriftMonitor with the default threshold and
// cooldown tuning.
func NewDriftMonitor(embedder embedding.Embedder, notifier Notifier) *DriftMonitor {
	return &DriftMonitor{
		threshold: DefaultDriftThreshold,
		cooldown:  DefaultCooldown,
		grace:     DefaultGracePeriod,
		embedder:  embedder,
		notifier:  notifier,
		now:       time.Now,
	}
}

// SetTuning overrides threshold and cooldown (config load, tests).
func (m *DriftMonitor) SetTuning(threshold float32, cooldown, grace time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if threshold > 0 {
		m.threshold = threshold
	}
	if cooldown > 0 {
		m.cooldown = cooldown
	}
	if grace > 0 {
		m.grace = grace
	}
}

// SetGoal activates a goal. The embedding may be attached later via
// ResolveGoalEmbedding; until then drift checks are skipped.
func (m *DriftMonitor) SetGoal(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goal = &Goal{Text: text}
	m.goalGeneration++
	m.lastWarningAt = time.Time{}
	logging.Drift("Goal set: %q", text)
}

// ResolveGoalEmbedding embeds the active goal text and attaches the vector.
// Typically called in a goroutine right after SetGoal; if the goal changed
// in the meantime the stale result is discarded.
func (m *DriftMonitor) ResolveGoalEmbedding(ctx context.Context) error {
	m.mu.Lock()
	if m.goal == nil {
		m.mu.Unlock()
		return nil
	}
	text := m.goal.Text
	generation := m.goalGeneration
	m.mu.Unlock()

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		logging.Get(logging.CategoryDrift).Warn("Goal embedding failed: %v", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.goal == nil || m.goalGeneration != generation {
		logging.Drift("Discarding stale goal embedding (goal changed during embed)")
		return nil
	}
	m.goal.Embedding = vec
	logging.Drift("Goal embedding attached (%d dims)", len(vec))
	return nil
}

// ClearGoal deactivates the goal and clears the cooldown state atomically,
// so that a fresh goal starts with a clean warning history.
func (m *DriftMonitor) ClearGoal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goal = nil
	m.goalGeneration++
	m.lastWarningAt = time.Time{}
	logging.Drift("Goal cleared")
}

// Active reports whether a goal is currently set.
func (m *DriftMonitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goal != nil
}

// GoalText returns the active goal text, or "" when none is set.
func (m *DriftMonitor) GoalText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.goal == nil {
		return ""
	}
	return m.goal.Text
}

// Snooze suppresses drift warnings for one full cooldown window.
func (m *DriftMonitor) Snooze() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastWarningAt = m.now()
	logging.Drift("Drift warnings snoozed for %s", m.cooldown)
}

// RestoreFocus acknowledges a warning: warnings stay suppressed for the
// short grace period only, so renewed drift is caught quickly.
func (m *DriftMonitor) RestoreFocus() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastWarningAt = m.now().Add(-(m.cooldown - m.grace))
	logging.Drift("Focus restored; grace period %s", m.grace)
}

// CheckTick runs one drift check against the snapshot. The embedding call
// happens outside the lock; cooldown is re-checked after it returns and the
// result is discarded if the goal changed while embedding.
// Returns true if a drift warning fired.
func (m *DriftMonitor) CheckTick(ctx context.Context, snap ContextSnapshot) bool {
	text := contextText(snap)
	if len(text) < minContextLen {
		return false
	}

	m.mu.Lock()
	if m.goal == nil || len(m.goal.Embedding) == 0 {
		m.mu.Unlock()
		return false
	}
	if m.inCooldownLocked() {
		m.mu.Unlock()
		return false
	}
	goalText := m.goal.Text
	goalVec := m.goal.Embedding
	generation := m.goalGeneration
	m.mu.Unlock()

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		// A single failed tick is not actionable; the next tick retries.
		logging.Get(logging.CategoryDrift).Warn("Context embedding failed: %v", err)
		return false
	}

	sim, err := embedding.CosineSimilarity(goalVec, vec)
	if err != nil {
		logging.Get(logging.CategoryDrift).Warn("Similarity computation failed: %v", err)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.goal == nil || m.goalGeneration != generation {
		return false
	}
	if sim >= float64(m.threshold) {
		return false
	}
	// The embed call takes real time; another warning may have fired since
	// the pre-check. Re-verify before notifying.
	if m.inCooldownLocked() {
		return false
	}

	m.lastWarningAt = m.now()
	percent := int(sim * 100)
	logging.Drift("Drift detected: similarity %.2f (threshold %.2f), context %q", sim, m.threshold, snap.AppName)
	m.notifier.Notify(driftWarning(goalText, snap, percent))
	return true
}

func (m *DriftMonitor) inCooldownLocked() bool {
	if m.lastWarningAt.IsZero() {
		return false
	}
	return m.now().Sub(m.lastWarningAt) < m.cooldown
}

// driftWarning formats the user-facing drift notification.
func driftWarning(goal string, snap ContextSnapshot, percent int) string {
	where := snap.AppName
	if title := strings.TrimSpace(snap.WindowTitle); title != "" {
		where = fmt.Sprintf("%s (%s)", snap.AppName, title)
	}
	return fmt.Sprintf("Your goal is %q, but you're in %s. Current activity is only %d%% aligned with your goal.", goal, where, percent)
}

// contextText assembles the text sent for embedding: the app name plus the
// window title when present.
func contextText(snap ContextSnapshot) string {
	app := strings.TrimSpace(snap.AppName)
	title := strings.TrimSpace(snap.WindowTitle)
	if title == "" {
		return app
	}
	return app + " " + title
}
