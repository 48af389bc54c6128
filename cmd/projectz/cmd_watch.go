package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Omkar399/project-z/internal/guardian"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the context guardian loop",
	Long: `Watches working context for guarded contacts and goal drift.

Context is fed on stdin, one observation per line:

    AppName | Window title | focused element text

The window title and focused text are optional. Real OS hooks plug in
behind the same provider interface; this command is the portable driver.

Two control lines adjust an active drift warning:

    snooze    quiet drift warnings for a full cooldown
    focus     quiet drift warnings for the grace period

Stop with Ctrl-C or EOF.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		notifier := &stdoutNotifier{}
		provider := &stdinProvider{}

		contactGuard := guardian.NewContactGuard(notifier)
		contacts, err := a.settings.ListContacts()
		if err != nil {
			return err
		}
		contactGuard.SetContacts(contacts)

		drift := guardian.NewDriftMonitor(a.llm, notifier)
		drift.SetTuning(
			float32(a.cfg.Guardian.DriftThreshold),
			a.cfg.GetCooldown(),
			a.cfg.GetGracePeriod(),
		)

		supervisor := guardian.NewSupervisor(provider, contactGuard, drift, guardian.SupervisorConfig{
			MessageApps:     a.cfg.Guardian.MessageApps,
			ContactInterval: a.cfg.GetContactPollInterval(),
			DriftInterval:   a.cfg.GetDriftPollInterval(),
		})
		defer supervisor.Stop()

		if goalText, _, err := a.settings.LoadGoal(); err == nil && goalText != "" {
			drift.SetGoal(goalText)
			go func() {
				if err := drift.ResolveGoalEmbedding(context.Background()); err != nil {
					logger.Warn("goal embedding unavailable, drift checks disabled", zap.Error(err))
				}
			}()
			fmt.Printf("Watching. Goal: %q\n", goalText)
		} else {
			fmt.Println("Watching. No goal set; guarded contacts only.")
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		done := make(chan struct{})
		go func() {
			defer close(done)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := scanner.Text()
				if handleControlLine(line, drift) {
					continue
				}
				snap, ok := parseObservation(line)
				if !ok {
					continue
				}
				if provider.set(snap) {
					supervisor.HandleAppActivated(snap.AppName)
				}
			}
		}()

		select {
		case <-sigCh:
		case <-done:
		}
		fmt.Println("Stopping.")
		return nil
	},
}

// driftControls is the slice of the drift monitor the stdin loop drives.
type driftControls interface {
	Snooze()
	RestoreFocus()
}

// handleControlLine applies a drift control command and reports whether the
// line was one.
func handleControlLine(line string, drift driftControls) bool {
	switch strings.TrimSpace(strings.ToLower(line)) {
	case "snooze":
		drift.Snooze()
		fmt.Println("Snoozed.")
		return true
	case "focus":
		drift.RestoreFocus()
		fmt.Println("Back on it.")
		return true
	}
	return false
}

// parseObservation parses one "App | title | focused" line.
func parseObservation(line string) (guardian.ContextSnapshot, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return guardian.ContextSnapshot{}, false
	}
	parts := strings.SplitN(line, "|", 3)
	snap := guardian.ContextSnapshot{AppName: strings.TrimSpace(parts[0])}
	if snap.AppName == "" {
		return guardian.ContextSnapshot{}, false
	}
	if len(parts) > 1 {
		snap.WindowTitle = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		snap.FocusedElementText = strings.TrimSpace(parts[2])
	}
	return snap, true
}

// stdinProvider holds the latest observation fed on stdin.
type stdinProvider struct {
	mu   sync.Mutex
	snap guardian.ContextSnapshot
}

func (p *stdinProvider) CurrentSnapshot() (guardian.ContextSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap, nil
}

// set stores the observation and reports whether the frontmost app changed.
func (p *stdinProvider) set(snap guardian.ContextSnapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := p.snap.AppName != snap.AppName
	p.snap = snap
	return changed
}

// stdoutNotifier prints interventions to the terminal.
type stdoutNotifier struct{}

func (stdoutNotifier) Notify(text string) {
	fmt.Printf("\n>> %s\n", text)
	logger.Info("intervention", zap.String("text", text))
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
