package guardian

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Omkar399/project-z/internal/logging"
)

// State is the supervisor lifecycle state.
type State int

const (
	StateIdle State = iota
	StateMonitoring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMonitoring:
		return "monitoring"
	default:
		return "unknown"
	}
}

// monitorTask is a once-stoppable handle for a running polling loop.
type monitorTask struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func (t *monitorTask) stop() {
	t.stopOnce.Do(t.cancel)
	<-t.done
}

// Supervisor owns the guardian polling loop. It transitions between Idle and
// Monitoring based on app activation events, and while monitoring runs
// contact and drift checks on an adaptive interval.
type Supervisor struct {
	mu           sync.Mutex
	state        State
	monitoredApp string
	task         *monitorTask

	provider ContextProvider
	contacts *ContactGuard
	drift    *DriftMonitor

	messageApps     map[string]bool
	contactInterval time.Duration
	driftInterval   time.Duration
}

// SupervisorConfig tunes the supervisor.
type SupervisorConfig struct {
	MessageApps     []string
	ContactInterval time.Duration
	DriftInterval   time.Duration
}

// DefaultSupervisorConfig returns the standard tuning.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		MessageApps:     []string{"Messages", "WhatsApp", "Telegram", "Slack", "Discord", "Signal"},
		ContactInterval: ContactPollInterval,
		DriftInterval:   DriftPollInterval,
	}
}

// NewSupervisor creates an idle supervisor.
func NewSupervisor(provider ContextProvider, contacts *ContactGuard, drift *DriftMonitor, cfg SupervisorConfig) *Supervisor {
	apps := make(map[string]bool, len(cfg.MessageApps))
	for _, a := range cfg.MessageApps {
		apps[strings.ToLower(a)] = true
	}
	if cfg.ContactInterval <= 0 {
		cfg.ContactInterval = ContactPollInterval
	}
	if cfg.DriftInterval <= 0 {
		cfg.DriftInterval = DriftPollInterval
	}
	return &Supervisor{
		state:           StateIdle,
		provider:        provider,
		contacts:        contacts,
		drift:           drift,
		messageApps:     apps,
		contactInterval: cfg.ContactInterval,
		driftInterval:   cfg.DriftInterval,
	}
}

// State returns the current lifecycle state and monitored app name.
func (s *Supervisor) State() (State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.monitoredApp
}

// HandleAppActivated reacts to the frontmost app changing. Monitoring starts
// for messaging apps always, and for any app while a goal is active.
// Switching apps replaces the running loop; a non-relevant app stops it.
func (s *Supervisor) HandleAppActivated(appName string) {
	if s.shouldMonitor(appName) {
		s.startMonitoring(appName)
		return
	}
	s.stopMonitoring()
}

// HandleAppLaunched mirrors HandleAppActivated: a freshly launched app is
// also the frontmost one.
func (s *Supervisor) HandleAppLaunched(appName string) {
	s.HandleAppActivated(appName)
}

// Stop halts monitoring. Safe to call repeatedly and while idle.
func (s *Supervisor) Stop() {
	s.stopMonitoring()
}

func (s *Supervisor) shouldMonitor(appName string) bool {
	if s.isMessageApp(appName) {
		return true
	}
	return s.drift.Active()
}

func (s *Supervisor) isMessageApp(appName string) bool {
	return s.messageApps[strings.ToLower(appName)]
}

func (s *Supervisor) startMonitoring(appName string) {
	s.mu.Lock()
	if s.state == StateMonitoring && s.monitoredApp == appName {
		s.mu.Unlock()
		return
	}
	prev := s.task
	ctx, cancel := context.WithCancel(context.Background())
	task := &monitorTask{cancel: cancel, done: make(chan struct{})}
	s.task = task
	s.state = StateMonitoring
	s.monitoredApp = appName
	interval := s.intervalFor(appName)
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
	}

	logging.Guardian("Monitoring started: app=%q interval=%s", appName, interval)
	go s.run(ctx, task, appName, interval)
}

func (s *Supervisor) stopMonitoring() {
	s.mu.Lock()
	task := s.task
	s.task = nil
	wasMonitoring := s.state == StateMonitoring
	s.state = StateIdle
	s.monitoredApp = ""
	s.mu.Unlock()

	if task != nil {
		task.stop()
	}
	if wasMonitoring {
		logging.Guardian("Monitoring stopped")
	}
}

// intervalFor picks the polling cadence: message apps need the fast contact
// cadence, everything else only needs the slower drift cadence.
func (s *Supervisor) intervalFor(appName string) time.Duration {
	if s.isMessageApp(appName) {
		return s.contactInterval
	}
	return s.driftInterval
}

// run is the polling loop. One goroutine per monitoring session; it exits on
// cancellation or when the monitored app is no longer frontmost.
func (s *Supervisor) run(ctx context.Context, task *monitorTask, appName string, interval time.Duration) {
	defer close(task.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastDriftCheck time.Time
	contactsApply := s.isMessageApp(appName)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// The loop may outlive the activation event that started it;
		// re-verify the app is still frontmost before acting.
		snap, err := s.provider.CurrentSnapshot()
		if err != nil {
			logging.GuardianDebug("Snapshot failed, skipping tick: %v", err)
			continue
		}
		if snap.AppName != appName {
			logging.Guardian("Frontmost app changed (%q -> %q), ending session", appName, snap.AppName)
			s.sessionEnded(task)
			return
		}

		runDrift := s.drift.Active() && time.Since(lastDriftCheck) >= s.driftInterval
		if runDrift {
			lastDriftCheck = time.Now()
		}

		g, gctx := errgroup.WithContext(ctx)
		if contactsApply {
			g.Go(func() error {
				s.contacts.Tick(snap)
				return nil
			})
		}
		if runDrift {
			g.Go(func() error {
				s.drift.CheckTick(gctx, snap)
				return nil
			})
		}
		// Checks swallow their own failures; a tick never ends the session.
		_ = g.Wait()
	}
}

// sessionEnded clears supervisor state when the loop exits on its own,
// without tearing down a newer task that may have replaced this one.
func (s *Supervisor) sessionEnded(task *monitorTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == task {
		s.task = nil
		s.state = StateIdle
		s.monitoredApp = ""
	}
}
