package router

import (
	"context"
	"time"
)

// Event is a calendar event as seen by the read strategy.
type Event struct {
	Title    string
	Start    time.Time
	End      time.Time
	Location string
	Notes    string
}

// CreateEventInput describes an event to be created.
type CreateEventInput struct {
	Title          string
	Start          time.Time
	End            time.Time
	Notes          string
	AttendeeEmails []string
}

// CalendarProvider is the external calendar collaborator.
// Authorization is requested lazily; a denial is a normal outcome, not an
// error.
type CalendarProvider interface {
	IsAuthorized() bool
	RequestAuthorization(ctx context.Context) bool
	Events(ctx context.Context, start, end time.Time) ([]Event, error)
	Create(ctx context.Context, input CreateEventInput) (string, error)
}

// Contact is a directory entry. Email may be empty.
type Contact struct {
	Name  string
	Email string
}

// ContactDirectory is the external people-lookup collaborator.
type ContactDirectory interface {
	Search(ctx context.Context, name string) ([]Contact, error)
}
