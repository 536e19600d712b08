// Package briefing renders the weather and calendar header of the morning
// check-in. Everything here is cosmetic: failures degrade to a short note.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type WeatherSource interface {
	Current(ctx context.Context, location string) (string, error)
}

type Briefer struct {
	weather   WeatherSource
	calendar  Calendar
	locations []string
	log       *slog.Logger
}

func New(weather WeatherSource, cal Calendar, locations []string) *Briefer {
	if cal == nil {
		cal = NoCalendar{}
	}
	return &Briefer{weather: weather, calendar: cal, locations: locations, log: slog.Default().With("component", "briefing")}
}

// Morning renders weather for every location and the events of now's day.
func (b *Briefer) Morning(ctx context.Context, now time.Time) string {
	var lines []string
	for _, loc := range b.locations {
		if b.weather == nil {
			break
		}
		w, err := b.weather.Current(ctx, loc)
		if err != nil {
			b.log.Warn("weather unavailable", "location", loc, "error", err)
			lines = append(lines, fmt.Sprintf("%s: weather not available", loc))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", loc, w))
	}
	lines = append(lines, b.agenda(ctx, now))
	return strings.Join(lines, "\n")
}

func (b *Briefer) agenda(ctx context.Context, now time.Time) string {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events, err := b.calendar.Events(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		b.log.Warn("calendar unavailable", "error", err)
		return "Calendar not available"
	}
	return FormatEvents(events, now.Location())
}

// FormatEvents renders a day's agenda.
func FormatEvents(events []Event, loc *time.Location) string {
	if len(events) == 0 {
		return "No events today"
	}
	lines := []string{"Today:"}
	for _, e := range events {
		when := "all day"
		if !e.AllDay {
			when = e.Start.In(loc).Format("15:04")
		}
		title := e.Title
		if title == "" {
			title = "(untitled)"
		}
		lines = append(lines, fmt.Sprintf("  • %s: %s", when, title))
	}
	return strings.Join(lines, "\n")
}
