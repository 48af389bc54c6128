package guardian

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Omkar399/project-z/internal/embedding"
)

// fakeEmbedder returns canned vectors keyed by substring of the input text.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32 // substring -> vector
	onEmbed func(text string)    // invoked mid-embed, before returning
	calls   int
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	hook := e.onEmbed
	e.mu.Unlock()

	if hook != nil {
		hook(text)
	}
	for key, vec := range e.vectors {
		if strings.Contains(text, key) {
			return vec, nil
		}
	}
	return []float32{1, 0}, nil
}

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestDriftMonitor(t *testing.T, embedder *fakeEmbedder, notifier *recordingNotifier) (*DriftMonitor, *time.Time) {
	t.Helper()
	m := NewDriftMonitor(embedder, notifier)

	clock := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.SetGoal("Write my thesis")
	if err := m.ResolveGoalEmbedding(context.Background()); err != nil {
		t.Fatalf("ResolveGoalEmbedding: %v", err)
	}
	return m, &clock
}

func driftingSnapshot() ContextSnapshot {
	return ContextSnapshot{AppName: "VideoApp", WindowTitle: "Top 10 cat videos"}
}

func TestDriftMonitorWarnsBelowThreshold(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   {1, 0},
		"VideoApp": {0, 1}, // orthogonal: similarity 0
	}}
	notifier := &recordingNotifier{}
	m, _ := newTestDriftMonitor(t, embedder, notifier)

	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("orthogonal context should trigger a drift warning")
	}
	msg := notifier.last()
	if !strings.Contains(msg, "Write my thesis") {
		t.Errorf("warning should quote the goal, got %q", msg)
	}
	if !strings.Contains(msg, "VideoApp") {
		t.Errorf("warning should name the app, got %q", msg)
	}
	if !strings.Contains(msg, "0%") {
		t.Errorf("warning should carry the alignment percentage, got %q", msg)
	}
}

func TestDriftMonitorThresholdBoundary(t *testing.T) {
	t.Parallel()

	// cos([1,0,0,0],[1,1,1,1]) is exactly 0.5; similarity at the threshold
	// is not drift, just below it is.
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   {1, 0, 0, 0},
		"VideoApp": {1, 1, 1, 1},
	}}
	notifier := &recordingNotifier{}
	m, _ := newTestDriftMonitor(t, embedder, notifier)

	m.SetTuning(0.5, DefaultCooldown, DefaultGracePeriod)
	if m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("similarity equal to the threshold must not warn")
	}

	m.SetTuning(0.75, DefaultCooldown, DefaultGracePeriod)
	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("similarity below the threshold must warn")
	}
}

func TestDriftMonitorNoWarningWhenAligned(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis": {1, 0},
		"Docs":   {1, 0.1}, // nearly parallel
	}}
	notifier := &recordingNotifier{}
	m, _ := newTestDriftMonitor(t, embedder, notifier)

	if m.CheckTick(context.Background(), ContextSnapshot{AppName: "Docs", WindowTitle: "Thesis draft"}) {
		t.Fatal("aligned context must not warn")
	}
	if notifier.count() != 0 {
		t.Fatalf("expected no notifications, got %d", notifier.count())
	}
}

func TestDriftMonitorCooldownSuppressesSecondWarning(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   {1, 0},
		"VideoApp": {0, 1},
	}}
	notifier := &recordingNotifier{}
	m, clock := newTestDriftMonitor(t, embedder, notifier)

	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("first drifting tick should warn")
	}

	// 10 seconds later, still drifting: well inside the 600s cooldown.
	*clock = clock.Add(10 * time.Second)
	if m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("second tick inside cooldown must not warn")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected exactly 1 warning, got %d", notifier.count())
	}

	// After the cooldown elapses the warning fires again.
	*clock = clock.Add(DefaultCooldown)
	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("tick after cooldown should warn again")
	}
}

func TestDriftMonitorCooldownSkipsEmbedding(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   {1, 0},
		"VideoApp": {0, 1},
	}}
	notifier := &recordingNotifier{}
	m, clock := newTestDriftMonitor(t, embedder, notifier)

	m.CheckTick(context.Background(), driftingSnapshot())
	callsAfterWarning := embedder.callCount()

	*clock = clock.Add(10 * time.Second)
	m.CheckTick(context.Background(), driftingSnapshot())
	if embedder.callCount() != callsAfterWarning {
		t.Error("ticks inside cooldown should not spend embedding calls")
	}
}

func TestDriftMonitorSkipsShortContext(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{}
	notifier := &recordingNotifier{}
	m, _ := newTestDriftMonitor(t, embedder, notifier)
	callsAfterSetup := embedder.callCount()

	if m.CheckTick(context.Background(), ContextSnapshot{AppName: "ab"}) {
		t.Fatal("too-short context must be skipped")
	}
	if embedder.callCount() != callsAfterSetup {
		t.Error("short context should not be embedded")
	}
}

func TestDriftMonitorInactiveWithoutGoal(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{}
	notifier := &recordingNotifier{}
	m := NewDriftMonitor(embedder, notifier)

	if m.Active() {
		t.Fatal("fresh monitor must not be active")
	}
	if m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("no goal means no drift checks")
	}
}

func TestDriftMonitorClearGoalResetsCooldown(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   {1, 0},
		"VideoApp": {0, 1},
	}}
	notifier := &recordingNotifier{}
	m, _ := newTestDriftMonitor(t, embedder, notifier)

	m.CheckTick(context.Background(), driftingSnapshot())

	m.ClearGoal()
	if m.Active() {
		t.Fatal("ClearGoal should deactivate the monitor")
	}

	// A fresh goal starts with no warning history: it can warn immediately.
	m.SetGoal("Write my thesis")
	if err := m.ResolveGoalEmbedding(context.Background()); err != nil {
		t.Fatalf("ResolveGoalEmbedding: %v", err)
	}
	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("new goal after ClearGoal should warn without waiting out the old cooldown")
	}
}

func TestDriftMonitorDiscardsStaleGoalEmbedding(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	notifier := &recordingNotifier{}
	m := NewDriftMonitor(embedder, notifier)

	m.SetGoal("old goal")
	// The goal changes while its embedding is in flight.
	embedder.onEmbed = func(string) { m.SetGoal("new goal") }
	if err := m.ResolveGoalEmbedding(context.Background()); err != nil {
		t.Fatalf("ResolveGoalEmbedding: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.goal == nil || m.goal.Text != "new goal" {
		t.Fatal("newer goal should survive")
	}
	if m.goal.Embedding != nil {
		t.Error("stale embedding must be discarded, not attached to the new goal")
	}
}

func TestDriftMonitorSnooze(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   {1, 0},
		"VideoApp": {0, 1},
	}}
	notifier := &recordingNotifier{}
	m, clock := newTestDriftMonitor(t, embedder, notifier)

	m.Snooze()
	if m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("snooze must suppress warnings")
	}

	*clock = clock.Add(DefaultCooldown)
	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("warnings resume after the snooze window")
	}
}

func TestDriftMonitorRestoreFocusGrace(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   {1, 0},
		"VideoApp": {0, 1},
	}}
	notifier := &recordingNotifier{}
	m, clock := newTestDriftMonitor(t, embedder, notifier)

	m.CheckTick(context.Background(), driftingSnapshot())
	m.RestoreFocus()

	// Inside the grace period renewed drift stays quiet.
	*clock = clock.Add(30 * time.Second)
	if m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("grace period should suppress an immediate re-warning")
	}

	// Once the grace period passes, renewed drift warns without waiting out
	// the full cooldown.
	*clock = clock.Add(DefaultGracePeriod)
	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("renewed drift after the grace period should warn")
	}
}

// Scenario: working in a docs editor stays quiet, switching to a video app
// warns and quotes the measured alignment.
func TestDriftMonitorEndToEndScenario(t *testing.T) {
	t.Parallel()

	goalVec := []float32{1, 0}
	docsVec := []float32{0.82, 0.57}
	videoVec := []float32{0.15, 0.99}

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"thesis":   goalVec,
		"Docs":     docsVec,
		"VideoApp": videoVec,
	}}
	notifier := &recordingNotifier{}
	m, _ := newTestDriftMonitor(t, embedder, notifier)

	if m.CheckTick(context.Background(), ContextSnapshot{AppName: "Docs", WindowTitle: "Thesis chapter 3"}) {
		t.Fatal("docs work should not warn")
	}
	if !m.CheckTick(context.Background(), driftingSnapshot()) {
		t.Fatal("video app should warn")
	}

	sim, err := embedding.CosineSimilarity(goalVec, videoVec)
	if err != nil {
		t.Fatalf("CosineSimilarity: %v", err)
	}
	wantPercent := fmt.Sprintf("%d%%", int(sim*100))
	if !strings.Contains(notifier.last(), wantPercent) {
		t.Errorf("warning should carry the measured alignment %s, got %q", wantPercent, notifier.last())
	}
}
