package router

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Omkar399/project-z/internal/logging"
	"github.com/Omkar399/project-z/internal/reasoning"
)

// calendarDeniedMessage is returned when calendar access is not granted.
// An instructional message, not an error.
const calendarDeniedMessage = "I don't have access to your calendar. " +
	"Grant calendar access in System Settings > Privacy & Security > Calendars, then ask again."

const calendarReadSystemPrompt = `You are a personal assistant answering questions about the user's calendar.
Answer ONLY from the event list provided. Be concise. If the list is empty or does not cover the question, say so.`

// notesTruncateLen bounds serialized event notes.
const notesTruncateLen = 120

// CalendarReadStrategy answers schedule questions from fetched events.
type CalendarReadStrategy struct {
	llm      reasoning.Client
	calendar CalendarProvider
	now      func() time.Time
}

// NewCalendarReadStrategy creates the calendar-read strategy.
func NewCalendarReadStrategy(llm reasoning.Client, calendar CalendarProvider) *CalendarReadStrategy {
	return &CalendarReadStrategy{llm: llm, calendar: calendar, now: time.Now}
}

// Answer resolves a time window from the question, fetches events, and asks
// the model to answer from their serialized form.
func (s *CalendarReadStrategy) Answer(ctx context.Context, q Question, _ []string) (string, error) {
	if !s.calendar.IsAuthorized() && !s.calendar.RequestAuthorization(ctx) {
		logging.Get(logging.CategoryCalendar).Info("calendar read: authorization denied")
		return calendarDeniedMessage, nil
	}

	start, end := s.resolveWindow(q.Text)
	logging.Get(logging.CategoryCalendar).Debug("calendar read: window %s - %s", start.Format(time.RFC3339), end.Format(time.RFC3339))

	events, err := s.calendar.Events(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("failed to fetch events: %w", err)
	}

	prompt := fmt.Sprintf("Events between %s and %s:\n%s\n\nQuestion: %s",
		start.Format("Mon Jan 2"), end.Format("Mon Jan 2"),
		serializeEvents(events), q.Text)

	return s.llm.Complete(ctx, reasoning.CompletionRequest{
		System:      calendarReadSystemPrompt,
		Prompt:      prompt,
		History:     q.History,
		MaxTokens:   1024,
		Temperature: 0.2,
	})
}

// resolveWindow selects a fixed window-computation rule from lexical cues.
// Absence of a cue defaults to the next 7 days.
func (s *CalendarReadStrategy) resolveWindow(question string) (time.Time, time.Time) {
	now := s.now()
	lower := strings.ToLower(question)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(lower, "today"):
		return startOfDay, startOfDay.AddDate(0, 0, 1)
	case strings.Contains(lower, "tomorrow"):
		return startOfDay.AddDate(0, 0, 1), startOfDay.AddDate(0, 0, 2)
	case strings.Contains(lower, "this week"):
		// Through the end of the current ISO week (Sunday night).
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return startOfDay, startOfDay.AddDate(0, 0, 8-weekday)
	default:
		return startOfDay, startOfDay.AddDate(0, 0, 7)
	}
}

// truncateNotes caps notes at notesTruncateLen bytes without splitting a
// UTF-8 sequence.
func truncateNotes(notes string) string {
	if len(notes) <= notesTruncateLen {
		return notes
	}
	cut := notesTruncateLen
	for cut > 0 && !utf8.RuneStart(notes[cut]) {
		cut--
	}
	return notes[:cut] + "..."
}

// serializeEvents renders events into a compact textual form.
func serializeEvents(events []Event) string {
	if len(events) == 0 {
		return "(no events)"
	}

	var sb strings.Builder
	for _, ev := range events {
		sb.WriteString(fmt.Sprintf("- %s: %s - %s",
			ev.Title,
			ev.Start.Format("Mon Jan 2 15:04"),
			ev.End.Format("15:04")))
		if ev.Location != "" {
			sb.WriteString(" @ " + ev.Location)
		}
		if ev.Notes != "" {
			notes := truncateNotes(ev.Notes)
			sb.WriteString(" (" + notes + ")")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
