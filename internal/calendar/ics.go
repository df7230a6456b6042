package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/teemow/coopcal/internal/dates"
)

// WriteICS writes events to w as an iCalendar document. All-day events use
// VALUE=DATE start and end properties; events without an id get a random UID.
func WriteICS(w io.Writer, events []Event, prodID string) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	if prodID != "" {
		cal.SetProductId(prodID)
	}

	stamp := time.Now().UTC()
	for _, ev := range events {
		uid := ev.ID
		if uid == "" {
			uid = uuid.NewString()
		}

		vevent := cal.AddEvent(uid)
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(ev.Title)

		if ev.IsAllDay {
			start, err := dateTime(ev.Start)
			if err != nil {
				return fmt.Errorf("event %s: %w", uid, err)
			}
			end, err := dateTime(ev.End)
			if err != nil {
				return fmt.Errorf("event %s: %w", uid, err)
			}
			vevent.SetAllDayStartAt(start)
			vevent.SetAllDayEndAt(end)
			continue
		}

		start, ok := ev.Start.Timestamp()
		if !ok {
			return fmt.Errorf("event %s: %w: start is not a timestamp", uid, dates.ErrInvalidFormat)
		}
		end, ok := ev.End.Timestamp()
		if !ok {
			return fmt.Errorf("event %s: %w: end is not a timestamp", uid, dates.ErrInvalidFormat)
		}
		vevent.SetStartAt(start)
		vevent.SetEndAt(end)
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// dateTime converts a calendar date to midnight UTC of that day.
func dateTime(v dates.Value) (time.Time, error) {
	d, ok := v.CalendarDate()
	if !ok {
		return time.Time{}, fmt.Errorf("%w: expected a calendar date", dates.ErrInvalidFormat)
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC), nil
}
