package guardian

import (
	"fmt"
	"math/rand"
)

// nudgeTemplates are the fixed default nudges used when a guarded contact has
// no custom nudge. Each takes the contact name.
var nudgeTemplates = []string{
	"Heads up - you're messaging %s. You asked to be reminded about this.",
	"You wanted a nudge before talking to %s. Still want to?",
	"This looks like a conversation with %s. Take a breath first.",
	"Pause: %s is on your guarded list. Is this the right moment?",
}

// NudgeSelector picks a template index given the template count.
// Injected so tests can make selection deterministic.
type NudgeSelector func(n int) int

// randomNudgeSelector is the production selector.
func randomNudgeSelector(n int) int {
	return rand.Intn(n)
}

// nudgeFor renders the nudge for a contact: the custom text when set,
// otherwise one of the fixed templates. Pure given the selector.
func nudgeFor(contact GuardedContact, pick NudgeSelector) string {
	if contact.CustomNudge != "" {
		return contact.CustomNudge
	}
	idx := pick(len(nudgeTemplates))
	if idx < 0 || idx >= len(nudgeTemplates) {
		idx = 0
	}
	return fmt.Sprintf(nudgeTemplates[idx], contact.Name)
}
