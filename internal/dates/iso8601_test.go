package dates

import (
	"encoding/json"
	"testing"
	"time"

	"cloudeng.io/datetime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISODate_DateTime(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUTC    string
		wantOffset int
	}{
		{"offset with colon", "2022-11-02T14:00:00-07:00", "2022-11-02T21:00:00Z", -7 * 3600},
		{"offset without colon", "2022-11-02T14:00:00-0700", "2022-11-02T21:00:00Z", -7 * 3600},
		{"positive offset", "2022-11-02T14:00:00+05:30", "2022-11-02T08:30:00Z", 5*3600 + 1800},
		{"zero offset", "2022-11-02T14:00:00+00:00", "2022-11-02T14:00:00Z", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseISODate(tt.input)
			require.NoError(t, err)
			assert.False(t, v.IsDate())

			ts, ok := v.Timestamp()
			require.True(t, ok)
			assert.Equal(t, tt.wantUTC, ts.UTC().Format(time.RFC3339))

			_, offset := ts.Zone()
			assert.Equal(t, tt.wantOffset, offset)

			_, isDate := v.CalendarDate()
			assert.False(t, isDate)
		})
	}
}

func TestParseISODate_WallClockPreserved(t *testing.T) {
	v, err := ParseISODate("2022-11-02T14:00:00-07:00")
	require.NoError(t, err)

	ts, _ := v.Timestamp()
	assert.Equal(t, 2022, ts.Year())
	assert.Equal(t, time.November, ts.Month())
	assert.Equal(t, 2, ts.Day())
	assert.Equal(t, 14, ts.Hour())
	assert.Equal(t, "2022-11-02T14:00:00-07:00", v.String())
}

func TestParseISODate_Date(t *testing.T) {
	v, err := ParseISODate("2022-11-02")
	require.NoError(t, err)
	assert.True(t, v.IsDate())

	d, ok := v.CalendarDate()
	require.True(t, ok)
	assert.Equal(t, datetime.CalendarDate{Year: 2022, Month: datetime.Month(time.November), Day: 2}, d)

	_, isTimestamp := v.Timestamp()
	assert.False(t, isTimestamp)
	assert.Equal(t, "2022-11-02", v.String())
}

func TestParseISODate_Invalid(t *testing.T) {
	inputs := []string{
		"not-a-date",
		"",
		"2022-11-02T14:00:00",
		"2022-11-02T14:00:00Z",
		"2022-11-02 14:00:00-07:00",
		"2022/11/02",
		"22-11-02",
		"2022-13-01",
		"2022-02-30",
		"2022-11-02T25:00:00-07:00",
		" 2022-11-02",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseISODate(input)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestValue_JSON(t *testing.T) {
	type wrapper struct {
		Start Value `json:"start"`
		End   Value `json:"end"`
	}

	start, err := ParseISODate("2022-11-02")
	require.NoError(t, err)
	end, err := ParseISODate("2022-11-02T15:30:00-07:00")
	require.NoError(t, err)

	data, err := json.Marshal(wrapper{Start: start, End: end})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2022-11-02","end":"2022-11-02T15:30:00-07:00"}`, string(data))

	var decoded wrapper
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Start.IsDate())
	assert.Equal(t, "2022-11-02T15:30:00-07:00", decoded.End.String())
}

func TestValue_IsZero(t *testing.T) {
	assert.True(t, Value{}.IsZero())
	assert.False(t, Date(datetime.CalendarDate{Year: 2022, Month: 1, Day: 1}).IsZero())
	assert.False(t, Timestamp(time.Unix(0, 0)).IsZero())
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "0999-01-05", FormatDate(datetime.CalendarDate{Year: 999, Month: 1, Day: 5}))
}
