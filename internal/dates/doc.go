// Package dates provides the date handling used when querying a calendar
// for one month of events.
//
// It computes month boundaries in a configured time zone and parses the
// ISO-8601 values returned by the Google Calendar API. The API reports
// all-day events with a bare date ("2022-11-02") and timed events with a
// full offset date-time ("2022-11-02T14:00:00-07:00"); ParseISODate returns
// a Value that keeps the two apart.
//
// Example usage:
//
//	loc, _ := time.LoadLocation("America/Los_Angeles")
//	r, err := dates.NewMonthRange(2022, time.November, loc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(r.TimeMin(), r.TimeMax())
package dates
