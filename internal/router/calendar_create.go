package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Omkar399/project-z/internal/logging"
	"github.com/Omkar399/project-z/internal/reasoning"
)

// User-visible abort messages. Every abort happens before any calendar write.
const (
	extractFailedMessage  = "I couldn't work out the event details from that. Try rephrasing, e.g. \"schedule lunch with Sam tomorrow at noon\"."
	dateFailedMessage     = "I couldn't understand the event's date and time. Try something like \"tomorrow at 3pm\" or an explicit date."
	writeDeniedMessage    = "I don't have permission to add calendar events. Grant calendar access in System Settings > Privacy & Security > Calendars, then ask again."
	defaultDurationMinute = 60
)

const extractSystemPrompt = `You extract calendar event details from a request.
Respond with ONLY a JSON object, no other text:
{
  "title": "<event title>",
  "start_date": "<YYYY-MM-DD HH:MM>",
  "duration_minutes": <int>,
  "notes": "<optional notes or empty string>",
  "attendee_names": ["<optional person names>"]
}
Resolve relative dates ("tomorrow at 3") against the current timestamp you are given.`

// acceptedDateFormats is the small ordered set of formats tried against the
// extracted start date.
var acceptedDateFormats = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// eventDetails is the wire shape of the extraction step.
type eventDetails struct {
	Title           string   `json:"title"`
	StartDate       string   `json:"start_date"`
	DurationMinutes int      `json:"duration_minutes"`
	Notes           string   `json:"notes"`
	AttendeeNames   []string `json:"attendee_names"`
}

// CalendarCreateStrategy runs the Extract -> Resolve -> Commit pipeline.
// Failure at any step before Commit leaves no calendar state changed.
type CalendarCreateStrategy struct {
	llm      reasoning.Client
	calendar CalendarProvider
	contacts ContactDirectory
	now      func() time.Time
}

// NewCalendarCreateStrategy creates the calendar-create strategy.
func NewCalendarCreateStrategy(llm reasoning.Client, calendar CalendarProvider, contacts ContactDirectory) *CalendarCreateStrategy {
	return &CalendarCreateStrategy{llm: llm, calendar: calendar, contacts: contacts, now: time.Now}
}

// Answer extracts event details, resolves the date and attendees, and commits
// the event, returning a confirmation with a per-attendee resolution report.
func (s *CalendarCreateStrategy) Answer(ctx context.Context, q Question, _ []string) (string, error) {
	log := logging.Get(logging.CategoryCalendar)

	// Extract
	details, err := s.extract(ctx, q.Text)
	if err != nil {
		log.Info("calendar create: extraction failed: %v", err)
		if _, remote := reasoning.IsRemoteError(err); remote {
			return "", err
		}
		return extractFailedMessage, nil
	}

	// Resolve date
	start, ok := parseStartDate(details.StartDate)
	if !ok {
		log.Info("calendar create: unparseable start date %q", details.StartDate)
		return dateFailedMessage, nil
	}
	duration := details.DurationMinutes
	if duration <= 0 {
		duration = defaultDurationMinute
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	// Resolve attendees (best-effort, never aborts the flow)
	emails, report := s.resolveAttendees(ctx, details.AttendeeNames)

	// Commit
	if !s.calendar.IsAuthorized() && !s.calendar.RequestAuthorization(ctx) {
		log.Info("calendar create: write authorization denied")
		return writeDeniedMessage, nil
	}

	if _, err := s.calendar.Create(ctx, CreateEventInput{
		Title:          details.Title,
		Start:          start,
		End:            end,
		Notes:          details.Notes,
		AttendeeEmails: emails,
	}); err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	log.Info("calendar create: created %q at %s", details.Title, start.Format(time.RFC3339))

	confirmation := fmt.Sprintf("Created \"%s\" on %s (%d min).",
		details.Title, start.Format("Mon Jan 2 at 15:04"), duration)
	if report != "" {
		confirmation += "\n" + report
	}
	return confirmation, nil
}

// extract asks the model for a JSON eventDetails object, seeded with the
// current timestamp so relative dates resolve correctly.
func (s *CalendarCreateStrategy) extract(ctx context.Context, question string) (*eventDetails, error) {
	prompt := fmt.Sprintf("Current timestamp: %s\n\nRequest: %s",
		s.now().Format("2006-01-02 15:04 (Monday)"), question)

	response, err := s.llm.Complete(ctx, reasoning.CompletionRequest{
		System:      extractSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   300,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, err
	}

	jsonStr := extractJSON(response)
	var details eventDetails
	if err := json.Unmarshal([]byte(jsonStr), &details); err != nil {
		return nil, fmt.Errorf("malformed extraction JSON: %w", err)
	}
	if strings.TrimSpace(details.Title) == "" || strings.TrimSpace(details.StartDate) == "" {
		return nil, fmt.Errorf("extraction missing title or start date")
	}
	return &details, nil
}

// parseStartDate tries the accepted formats in order.
func parseStartDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedDateFormats {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveAttendees looks up each name, taking the first match with a
// non-empty email. Unresolved names are reported but do not abort creation.
func (s *CalendarCreateStrategy) resolveAttendees(ctx context.Context, names []string) ([]string, string) {
	if len(names) == 0 {
		return nil, ""
	}

	var emails []string
	var lines []string

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		email := ""
		if s.contacts != nil {
			matches, err := s.contacts.Search(ctx, name)
			if err != nil {
				logging.Get(logging.CategoryCalendar).Debug("contact search %q failed: %v", name, err)
			} else {
				for _, m := range matches {
					if m.Email != "" {
						email = m.Email
						break
					}
				}
			}
		}

		if email != "" {
			emails = append(emails, email)
			lines = append(lines, fmt.Sprintf("- %s: invited (%s)", name, email))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: no contact with an email found", name))
		}
	}

	if len(lines) == 0 {
		return nil, ""
	}
	return emails, "Attendees:\n" + strings.Join(lines, "\n")
}

// extractJSON extracts a JSON object from a potentially mixed-format response
// (markdown fences, surrounding prose).
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return "{}"
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if ch == '{' {
			depth++
		} else if ch == '}' {
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}
