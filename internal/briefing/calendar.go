package briefing

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Event struct {
	Start  time.Time
	AllDay bool
	Title  string
}

// Calendar lists events in a time range.
type Calendar interface {
	Events(ctx context.Context, from, to time.Time) ([]Event, error)
}

// NoCalendar is used when no calendar is configured.
type NoCalendar struct{}

func (NoCalendar) Events(context.Context, time.Time, time.Time) ([]Event, error) { return nil, nil }

type GoogleCalendar struct {
	events     *calendar.EventsService
	calendarID string
}

// NewGoogleCalendar authenticates with a service-account JSON blob.
func NewGoogleCalendar(ctx context.Context, credentialsJSON []byte, calendarID string) (*GoogleCalendar, error) {
	srv, err := calendar.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(calendar.CalendarReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("creating calendar client: %w", err)
	}
	return &GoogleCalendar{events: srv.Events, calendarID: calendarID}, nil
}

func (g *GoogleCalendar) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	resp, err := g.events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	var out []Event
	for _, item := range resp.Items {
		ev := Event{Title: item.Summary}
		if item.Start != nil {
			if item.Start.DateTime != "" {
				ev.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
			} else {
				ev.AllDay = true
				ev.Start, _ = time.ParseInLocation(time.DateOnly, item.Start.Date, from.Location())
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
