package router

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newCreateStrategy(llm *mockLLM, cal *fakeCalendar, dir *fakeDirectory) *CalendarCreateStrategy {
	s := NewCalendarCreateStrategy(llm, cal, dir)
	s.now = fixedNow
	return s
}

func TestCalendarCreate_AbortOnMalformedExtraction(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: "sure, I'll schedule that for you!"}
	cal := &fakeCalendar{authorized: true}
	s := newCreateStrategy(llm, cal, &fakeDirectory{})

	answer, err := s.Answer(context.Background(), Question{Text: "schedule lunch"}, nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != extractFailedMessage {
		t.Errorf("expected extraction failure message, got %q", answer)
	}
	if cal.createCalls != 0 {
		t.Errorf("no calendar write may happen on parse failure, got %d create calls", cal.createCalls)
	}
}

func TestCalendarCreate_AbortOnUnparseableDate(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"title":"Lunch","start_date":"sometime soonish","duration_minutes":60}`}
	cal := &fakeCalendar{authorized: true}
	s := newCreateStrategy(llm, cal, &fakeDirectory{})

	answer, err := s.Answer(context.Background(), Question{Text: "schedule lunch"}, nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != dateFailedMessage {
		t.Errorf("expected date failure message, got %q", answer)
	}
	if cal.createCalls != 0 {
		t.Error("no calendar write may happen on date failure")
	}
}

func TestCalendarCreate_AbortOnWriteDenial(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"title":"Lunch","start_date":"2025-03-13 12:00","duration_minutes":45}`}
	cal := &fakeCalendar{authorized: false, grantOnAsk: false}
	s := newCreateStrategy(llm, cal, &fakeDirectory{})

	answer, err := s.Answer(context.Background(), Question{Text: "schedule lunch tomorrow"}, nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != writeDeniedMessage {
		t.Errorf("expected denial message, got %q", answer)
	}
	if cal.createCalls != 0 {
		t.Error("no calendar write may happen when authorization is denied")
	}
}

func TestCalendarCreate_SuccessWithAttendeeReport(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: "```json\n" +
		`{"title":"Planning","start_date":"2025-03-13 15:00","duration_minutes":30,"notes":"Q2 planning","attendee_names":["Sam","Nobody"]}` +
		"\n```"}
	cal := &fakeCalendar{authorized: true}
	dir := &fakeDirectory{results: map[string][]Contact{
		"Sam": {{Name: "Sam Jones", Email: ""}, {Name: "Sam Reed", Email: "sam@example.com"}},
	}}
	s := newCreateStrategy(llm, cal, dir)

	answer, err := s.Answer(context.Background(), Question{Text: "set up planning tomorrow at 3 with Sam and Nobody"}, nil)
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}

	if cal.createCalls != 1 {
		t.Fatalf("expected exactly 1 create call, got %d", cal.createCalls)
	}

	created := cal.lastCreated
	if created.Title != "Planning" {
		t.Errorf("unexpected title %q", created.Title)
	}
	wantStart := time.Date(2025, 3, 13, 15, 0, 0, 0, time.Local)
	if !created.Start.Equal(wantStart) {
		t.Errorf("unexpected start %s, want %s", created.Start, wantStart)
	}
	if !created.End.Equal(wantStart.Add(30 * time.Minute)) {
		t.Errorf("unexpected end %s", created.End)
	}
	// First match with a non-empty email wins.
	if len(created.AttendeeEmails) != 1 || created.AttendeeEmails[0] != "sam@example.com" {
		t.Errorf("unexpected attendee emails %v", created.AttendeeEmails)
	}

	if !strings.Contains(answer, "Created \"Planning\"") {
		t.Errorf("confirmation missing title: %q", answer)
	}
	if !strings.Contains(answer, "sam@example.com") {
		t.Errorf("confirmation missing resolved attendee: %q", answer)
	}
	if !strings.Contains(answer, "Nobody: no contact") {
		t.Errorf("confirmation missing unresolved attendee report: %q", answer)
	}
}

func TestCalendarCreate_DefaultDuration(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"title":"Call","start_date":"2025-03-13 09:00"}`}
	cal := &fakeCalendar{authorized: true}
	s := newCreateStrategy(llm, cal, &fakeDirectory{})

	if _, err := s.Answer(context.Background(), Question{Text: "call at 9"}, nil); err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	got := cal.lastCreated.End.Sub(cal.lastCreated.Start)
	if got != time.Duration(defaultDurationMinute)*time.Minute {
		t.Errorf("expected default duration, got %v", got)
	}
}

func TestCalendarCreate_SeedsCurrentTimestamp(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: `{"title":"X","start_date":"2025-03-13 09:00"}`}
	cal := &fakeCalendar{authorized: true}
	s := newCreateStrategy(llm, cal, &fakeDirectory{})

	if _, err := s.Answer(context.Background(), Question{Text: "x tomorrow at 9"}, nil); err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if !strings.Contains(llm.lastRequest.Prompt, "2025-03-12") {
		t.Errorf("extraction prompt must carry the current timestamp, got %q", llm.lastRequest.Prompt)
	}
}

func TestParseStartDate_Formats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in string
		ok bool
	}{
		{"2025-03-13 15:00", true},
		{"2025-03-13T15:00", true},
		{"2025-03-13T15:00:00", true},
		{"2025-03-13", true},
		{"next tuesday", false},
		{"", false},
	}

	for _, tc := range cases {
		if _, ok := parseStartDate(tc.in); ok != tc.ok {
			t.Errorf("parseStartDate(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{`Here you go: {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`},
		{`{"s":"br{ace}"}`, `{"s":"br{ace}"}`},
		{"no json here", "{}"},
	}

	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
