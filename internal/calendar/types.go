package calendar

import (
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/coopcal/internal/dates"
)

// Source identifies the calendar to read and the zone month boundaries are
// computed in.
type Source struct {
	CalendarID string
	Location   *time.Location
}

// Event is a normalized calendar event. Start and End hold calendar dates
// when IsAllDay is set and zoned timestamps otherwise.
type Event struct {
	ID       string      `json:"id,omitempty"`
	Title    string      `json:"title"`
	Start    dates.Value `json:"start"`
	End      dates.Value `json:"end"`
	IsAllDay bool        `json:"isAllDay"`
}

// String renders the event on one line: its bounds, an all-day marker
// when set, and the title.
func (e Event) String() string {
	if e.IsAllDay {
		return fmt.Sprintf("%s..%s (all day) %s", e.Start, e.End, e.Title)
	}
	return fmt.Sprintf("%s..%s %s", e.Start, e.End, e.Title)
}

// CalendarInfo represents information about a calendar
type CalendarInfo struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	TimeZone   string `json:"timeZone,omitempty"`
	Primary    bool   `json:"primary,omitempty"`
	AccessRole string `json:"accessRole,omitempty"` // "owner", "writer", "reader", "freeBusyReader"
}

// toEvent converts a Google Calendar event to an Event. An event whose start
// carries a date (rather than a date-time) is an all-day event.
func toEvent(event *calendar.Event) (Event, error) {
	if event == nil {
		return Event{}, fmt.Errorf("%w: nil event", dates.ErrInvalidFormat)
	}
	if event.Start == nil || event.End == nil {
		return Event{}, fmt.Errorf("%w: event %q has no start or end", dates.ErrInvalidFormat, event.Id)
	}

	out := Event{
		ID:       event.Id,
		Title:    event.Summary,
		IsAllDay: event.Start.Date != "",
	}

	var err error
	if out.IsAllDay {
		if out.Start, err = parseDate(event.Start.Date); err != nil {
			return Event{}, err
		}
		if out.End, err = parseDate(event.End.Date); err != nil {
			return Event{}, err
		}
		return out, nil
	}

	if out.Start, err = parseDateTime(event.Start.DateTime); err != nil {
		return Event{}, err
	}
	if out.End, err = parseDateTime(event.End.DateTime); err != nil {
		return Event{}, err
	}
	return out, nil
}

func parseDate(text string) (dates.Value, error) {
	v, err := dates.ParseISODate(text)
	if err != nil {
		return dates.Value{}, err
	}
	if !v.IsDate() {
		return dates.Value{}, fmt.Errorf("%w: %q is not a date", dates.ErrInvalidFormat, text)
	}
	return v, nil
}

func parseDateTime(text string) (dates.Value, error) {
	v, err := dates.ParseISODate(text)
	if err != nil {
		return dates.Value{}, err
	}
	if v.IsDate() {
		return dates.Value{}, fmt.Errorf("%w: %q has no time of day", dates.ErrInvalidFormat, text)
	}
	return v, nil
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:         entry.Id,
		Summary:    entry.Summary,
		TimeZone:   entry.TimeZone,
		Primary:    entry.Primary,
		AccessRole: entry.AccessRole,
	}
}
