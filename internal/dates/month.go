package dates

import (
	"fmt"
	"strings"
	"time"

	"cloudeng.io/datetime"
)

// MonthRange is the query window for a calendar month. Start is midnight
// of the first day and End is midnight of the last day, both in the same
// location.
type MonthRange struct {
	Start time.Time
	End   time.Time
}

// StartOfMonth returns midnight of the first day of the month in loc.
func StartOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, loc)
}

// EndOfMonth returns midnight of the last day of the month in loc.
//
// The value is derived from the start of the month: add 31 days, go back
// to the first day of the month that lands in, then step back one day.
func EndOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	overshoot := StartOfMonth(year, month, loc).AddDate(0, 0, 31)
	firstOfNext := time.Date(overshoot.Year(), overshoot.Month(), 1, 0, 0, 0, 0, loc)
	return firstOfNext.AddDate(0, 0, -1)
}

// NewMonthRange returns the range for the given month. The month must be
// in 1..12 and loc must not be nil.
func NewMonthRange(year int, month time.Month, loc *time.Location) (MonthRange, error) {
	if month < time.January || month > time.December {
		return MonthRange{}, fmt.Errorf("invalid month %d: must be between 1 and 12", month)
	}
	if loc == nil {
		return MonthRange{}, fmt.Errorf("location cannot be nil")
	}
	return MonthRange{
		Start: StartOfMonth(year, month, loc),
		End:   EndOfMonth(year, month, loc),
	}, nil
}

// TimeMin returns the start of the range as an RFC 3339 string with offset.
func (r MonthRange) TimeMin() string {
	return r.Start.Format(time.RFC3339)
}

// TimeMax returns the end of the range as an RFC 3339 string with offset.
func (r MonthRange) TimeMax() string {
	return r.End.Format(time.RFC3339)
}

func (r MonthRange) String() string {
	return r.TimeMin() + "/" + r.TimeMax()
}

// ParseMonth parses a month given either as a number in 1..12 or as a
// name of at least three letters ("nov", "November").
func ParseMonth(text string) (time.Month, error) {
	trimmed := strings.TrimSpace(text)
	if _, err := datetime.ParseNumericMonth(trimmed); err != nil && len(trimmed) < 3 {
		return 0, fmt.Errorf("invalid month %q", text)
	}
	var m datetime.Month
	if err := m.Parse(trimmed); err != nil {
		return 0, fmt.Errorf("invalid month %q: %w", text, err)
	}
	return time.Month(m), nil
}
