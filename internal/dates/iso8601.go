package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloudeng.io/datetime"
)

// ErrInvalidFormat is returned when a string is neither an ISO-8601 date
// nor an ISO-8601 date-time with a numeric offset.
var ErrInvalidFormat = errors.New("invalid ISO-8601 date")

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05-0700"
)

var (
	dateTimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})([+-]\d{2}:?\d{2})$`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Value holds either a zoned timestamp or a calendar date.
type Value struct {
	ts     time.Time
	date   datetime.CalendarDate
	isDate bool
}

// Timestamp returns a Value holding t.
func Timestamp(t time.Time) Value {
	return Value{ts: t}
}

// Date returns a Value holding the calendar date d.
func Date(d datetime.CalendarDate) Value {
	return Value{date: d, isDate: true}
}

// IsDate reports whether v holds a calendar date rather than a timestamp.
func (v Value) IsDate() bool {
	return v.isDate
}

// Timestamp returns the timestamp held by v. The boolean is false when v
// holds a calendar date.
func (v Value) Timestamp() (time.Time, bool) {
	return v.ts, !v.isDate
}

// CalendarDate returns the date held by v. The boolean is false when v
// holds a timestamp.
func (v Value) CalendarDate() (datetime.CalendarDate, bool) {
	return v.date, v.isDate
}

// IsZero reports whether v holds neither a date nor a non-zero timestamp.
func (v Value) IsZero() bool {
	return !v.isDate && v.ts.IsZero()
}

// String formats v back to ISO-8601: YYYY-MM-DD for dates and RFC 3339
// for timestamps.
func (v Value) String() string {
	if v.isDate {
		return FormatDate(v.date)
	}
	return v.ts.Format(time.RFC3339)
}

// MarshalText implements encoding.TextMarshaler.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Value) UnmarshalText(text []byte) error {
	parsed, err := ParseISODate(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FormatDate renders d as YYYY-MM-DD.
func FormatDate(d datetime.CalendarDate) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseISODate parses "YYYY-MM-DD" into a calendar date, or
// "YYYY-MM-DDTHH:MM:SS±HH:MM" (the colon in the offset is optional) into a
// timestamp carrying that offset.
func ParseISODate(text string) (Value, error) {
	if m := dateTimeRe.FindStringSubmatch(text); m != nil {
		normalized := m[1] + strings.Replace(m[2], ":", "", 1)
		t, err := time.Parse(dateTimeLayout, normalized)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, text, err)
		}
		return Timestamp(t), nil
	}

	if !dateRe.MatchString(text) {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}

	t, err := time.Parse(dateLayout, text)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, text, err)
	}
	return Date(datetime.CalendarDate{
		Year:  t.Year(),
		Month: datetime.Month(t.Month()),
		Day:   t.Day(),
	}), nil
}
