package guardian

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProvider serves a settable snapshot.
type fakeProvider struct {
	mu   sync.Mutex
	snap ContextSnapshot
	err  error
}

func (p *fakeProvider) CurrentSnapshot() (ContextSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap, p.err
}

func (p *fakeProvider) set(snap ContextSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap = snap
}

func fastSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		MessageApps:     []string{"Messages"},
		ContactInterval: 5 * time.Millisecond,
		DriftInterval:   10 * time.Millisecond,
	}
}

func newTestSupervisor(provider *fakeProvider, notifier *recordingNotifier) *Supervisor {
	contacts := NewContactGuard(notifier)
	contacts.SetNudgeSelector(func(n int) int { return 0 })
	drift := NewDriftMonitor(&fakeEmbedder{}, notifier)
	return NewSupervisor(provider, contacts, drift, fastSupervisorConfig())
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSupervisorIdleByDefault(t *testing.T) {
	s := newTestSupervisor(&fakeProvider{}, &recordingNotifier{})
	if state, _ := s.State(); state != StateIdle {
		t.Fatalf("fresh supervisor should be idle, got %s", state)
	}
}

func TestSupervisorStartsForMessageApp(t *testing.T) {
	provider := &fakeProvider{snap: ContextSnapshot{AppName: "Messages"}}
	s := newTestSupervisor(provider, &recordingNotifier{})
	defer s.Stop()

	s.HandleAppActivated("Messages")
	state, app := s.State()
	if state != StateMonitoring || app != "Messages" {
		t.Fatalf("expected monitoring Messages, got %s %q", state, app)
	}
}

func TestSupervisorIgnoresIrrelevantApp(t *testing.T) {
	s := newTestSupervisor(&fakeProvider{}, &recordingNotifier{})
	defer s.Stop()

	s.HandleAppActivated("Terminal")
	if state, _ := s.State(); state != StateIdle {
		t.Fatal("non-message app without an active goal should be ignored")
	}
}

func TestSupervisorMonitorsAnyAppWhileGoalActive(t *testing.T) {
	provider := &fakeProvider{snap: ContextSnapshot{AppName: "Terminal"}}
	notifier := &recordingNotifier{}
	s := newTestSupervisor(provider, notifier)
	defer s.Stop()

	s.drift.SetGoal("ship the release")
	s.HandleAppActivated("Terminal")
	if state, app := s.State(); state != StateMonitoring || app != "Terminal" {
		t.Fatalf("goal-active monitoring should cover any app, got %s %q", state, app)
	}
}

func TestSupervisorStopIsIdempotent(t *testing.T) {
	provider := &fakeProvider{snap: ContextSnapshot{AppName: "Messages"}}
	s := newTestSupervisor(provider, &recordingNotifier{})

	s.HandleAppActivated("Messages")
	s.Stop()
	s.Stop() // second stop must be a no-op
	s.Stop()

	if state, _ := s.State(); state != StateIdle {
		t.Fatal("supervisor should be idle after Stop")
	}
}

func TestSupervisorStopWhileIdle(t *testing.T) {
	s := newTestSupervisor(&fakeProvider{}, &recordingNotifier{})
	s.Stop() // never started
}

func TestSupervisorEndsSessionWhenFrontmostChanges(t *testing.T) {
	provider := &fakeProvider{snap: ContextSnapshot{AppName: "Messages"}}
	s := newTestSupervisor(provider, &recordingNotifier{})
	defer s.Stop()

	s.HandleAppActivated("Messages")

	// The user switched apps but no activation event reached the supervisor.
	provider.set(ContextSnapshot{AppName: "Safari"})

	waitFor(t, func() bool {
		state, _ := s.State()
		return state == StateIdle
	}, "loop should notice the frontmost app changed and end the session")
}

func TestSupervisorSwitchingAppsReplacesSession(t *testing.T) {
	provider := &fakeProvider{snap: ContextSnapshot{AppName: "Messages"}}
	notifier := &recordingNotifier{}
	s := newTestSupervisor(provider, notifier)
	defer s.Stop()

	s.HandleAppActivated("Messages")
	s.drift.SetGoal("ship the release")
	provider.set(ContextSnapshot{AppName: "Terminal"})
	s.HandleAppActivated("Terminal")

	if state, app := s.State(); state != StateMonitoring || app != "Terminal" {
		t.Fatalf("expected session replaced with Terminal, got %s %q", state, app)
	}
}

func TestSupervisorContactWarningThroughLoop(t *testing.T) {
	provider := &fakeProvider{snap: ContextSnapshot{
		AppName:     "Messages",
		WindowTitle: "Alex Smith - Messages",
	}}
	notifier := &recordingNotifier{}
	s := newTestSupervisor(provider, notifier)
	defer s.Stop()

	s.contacts.SetContacts([]GuardedContact{{ID: "1", Name: "Alex", Enabled: true}})
	s.HandleAppActivated("Messages")

	waitFor(t, func() bool { return notifier.count() >= 1 }, "polling loop should surface the contact warning")

	// Unchanged context: no matter how many more ticks run, one warning.
	time.Sleep(50 * time.Millisecond)
	if notifier.count() != 1 {
		t.Fatalf("expected exactly 1 warning from the loop, got %d", notifier.count())
	}
}
