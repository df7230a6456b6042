package dates

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestStartOfMonth(t *testing.T) {
	loc := mustLoad(t, "America/Los_Angeles")

	got := StartOfMonth(2022, time.November, loc)

	assert.Equal(t, "2022-11-01T00:00:00-07:00", got.Format(time.RFC3339))
	assert.Equal(t, loc, got.Location())
}

func TestEndOfMonth(t *testing.T) {
	loc := mustLoad(t, "America/Los_Angeles")

	tests := []struct {
		name  string
		year  int
		month time.Month
		want  string
	}{
		{"february", 2022, time.February, "2022-02-28"},
		{"leap february", 2024, time.February, "2024-02-29"},
		{"century non-leap", 1900, time.February, "1900-02-28"},
		{"april", 2022, time.April, "2022-04-30"},
		{"january", 2023, time.January, "2023-01-31"},
		{"november", 2022, time.November, "2022-11-30"},
		{"december wraps year", 2022, time.December, "2022-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EndOfMonth(tt.year, tt.month, loc)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Zero(t, got.Hour())
			assert.Zero(t, got.Minute())
			assert.Equal(t, loc, got.Location())
		})
	}
}

func TestEndOfMonth_OffsetFollowsZone(t *testing.T) {
	loc := mustLoad(t, "America/Los_Angeles")

	// March starts in PST and ends in PDT.
	assert.Equal(t, "2022-03-01T00:00:00-08:00", StartOfMonth(2022, time.March, loc).Format(time.RFC3339))
	assert.Equal(t, "2022-03-31T00:00:00-07:00", EndOfMonth(2022, time.March, loc).Format(time.RFC3339))
}

func TestMonthBounds_AllMonths(t *testing.T) {
	for _, name := range []string{"UTC", "America/Los_Angeles", "Asia/Kolkata", "Pacific/Auckland"} {
		loc := mustLoad(t, name)
		for year := 1970; year <= 2100; year++ {
			for month := time.January; month <= time.December; month++ {
				start := StartOfMonth(year, month, loc)
				end := EndOfMonth(year, month, loc)
				if end.Before(start) {
					t.Fatalf("%s %d-%02d: end %v before start %v", name, year, month, end, start)
				}
				lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
				if !end.Equal(lastDay) {
					t.Fatalf("%s %d-%02d: end = %v, want %v", name, year, month, end, lastDay)
				}
			}
		}
	}
}

func TestNewMonthRange(t *testing.T) {
	loc := mustLoad(t, "America/Los_Angeles")

	r, err := NewMonthRange(2022, time.November, loc)
	require.NoError(t, err)
	assert.Equal(t, "2022-11-01T00:00:00-07:00", r.TimeMin())
	assert.Equal(t, "2022-11-30T00:00:00-08:00", r.TimeMax())
	assert.Equal(t, "2022-11-01T00:00:00-07:00/2022-11-30T00:00:00-08:00", r.String())
}

func TestNewMonthRange_Invalid(t *testing.T) {
	loc := mustLoad(t, "UTC")

	tests := []struct {
		name  string
		month time.Month
		loc   *time.Location
	}{
		{"month zero", 0, loc},
		{"month thirteen", 13, loc},
		{"nil location", time.May, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMonthRange(2022, tt.month, tt.loc)
			assert.Error(t, err)
		})
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		text    string
		want    time.Month
		wantErr bool
	}{
		{text: "11", want: time.November},
		{text: "1", want: time.January},
		{text: "02", want: time.February},
		{text: "nov", want: time.November},
		{text: "November", want: time.November},
		{text: " DEC ", want: time.December},
		{text: "sept", want: time.September},
		{text: "0", wantErr: true},
		{text: "13", wantErr: true},
		{text: "", wantErr: true},
		{text: "ju", wantErr: true},
		{text: "smarch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseMonth(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
