package guardian

import (
	"strings"
	"sync"

	"github.com/Omkar399/project-z/internal/logging"
)

// titleSuffixSeparators are the separators messaging apps append app names
// with, e.g. "Alex Smith - Messages" or "Alex Smith — WhatsApp".
var titleSuffixSeparators = []string{" - ", " — ", " | "}

// ContactGuard warns when a guarded contact appears in the monitored app's
// context. It warns at most once per unchanged candidate: the marker is
// cleared when no candidate is visible or a non-matching candidate appears.
type ContactGuard struct {
	mu         sync.Mutex
	contacts   []GuardedContact
	lastWarned string
	notifier   Notifier
	pickNudge  NudgeSelector
}

// NewContactGuard creates a ContactGuard with the production nudge selector.
func NewContactGuard(notifier Notifier) *ContactGuard {
	return &ContactGuard{
		notifier:  notifier,
		pickNudge: randomNudgeSelector,
	}
}

// SetNudgeSelector overrides the template selection source (tests).
func (g *ContactGuard) SetNudgeSelector(pick NudgeSelector) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pickNudge = pick
}

// SetContacts replaces the guarded contact list. Called by user-facing
// actions only; ticks read it.
func (g *ContactGuard) SetContacts(contacts []GuardedContact) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contacts = make([]GuardedContact, len(contacts))
	copy(g.contacts, contacts)
}

// Contacts returns a copy of the guarded contact list.
func (g *ContactGuard) Contacts() []GuardedContact {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GuardedContact, len(g.contacts))
	copy(out, g.contacts)
	return out
}

// Tick runs one contact check against the snapshot.
// Returns true if an intervention fired (tests observe this).
func (g *ContactGuard) Tick(snap ContextSnapshot) bool {
	candidate := candidateFromSnapshot(snap)

	g.mu.Lock()
	defer g.mu.Unlock()

	if candidate == "" {
		// Context cleared: a later return to a guarded contact re-triggers.
		g.lastWarned = ""
		return false
	}

	contact, matched := g.matchLocked(candidate)
	if !matched {
		g.lastWarned = ""
		return false
	}

	if candidate == g.lastWarned {
		// Never warn twice for the same unchanged context.
		return false
	}

	nudge := nudgeFor(contact, g.pickNudge)
	logging.Contacts("Guarded contact %q detected in context %q", contact.Name, candidate)
	g.notifier.Notify(nudge)
	g.lastWarned = candidate
	return true
}

// matchLocked finds an enabled guarded contact whose name is a
// case-insensitive substring of the candidate.
func (g *ContactGuard) matchLocked(candidate string) (GuardedContact, bool) {
	lower := strings.ToLower(candidate)
	for _, c := range g.contacts {
		if !c.Enabled || c.Name == "" {
			continue
		}
		name := strings.ToLower(c.Name)
		if strings.Contains(lower, name) {
			return c, true
		}
	}
	return GuardedContact{}, false
}

// candidateFromSnapshot derives the candidate contact identifier: the cleaned
// window title when present, otherwise the focused-element text.
func candidateFromSnapshot(snap ContextSnapshot) string {
	if title := cleanWindowTitle(snap.WindowTitle, snap.AppName); title != "" {
		return title
	}
	return strings.TrimSpace(snap.FocusedElementText)
}

// cleanWindowTitle strips known app-name suffixes from a window title.
func cleanWindowTitle(title, appName string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	for _, sep := range titleSuffixSeparators {
		if idx := strings.LastIndex(title, sep); idx > 0 {
			suffix := strings.TrimSpace(title[idx+len(sep):])
			if appName != "" && strings.EqualFold(suffix, appName) {
				title = strings.TrimSpace(title[:idx])
			}
		}
	}

	// Titles that are just the app name carry no contact information.
	if appName != "" && strings.EqualFold(title, appName) {
		return ""
	}
	return title
}
