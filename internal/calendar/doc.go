// Package calendar fetches the events of one calendar month from the Google
// Calendar API and normalizes them.
//
// A fetch issues a single events.list request bounded by the month's first
// instant and the midnight that starts its last day, with recurring events
// expanded into single instances and ordered by start time. Each result is
// mapped into an Event whose Start and End are calendar dates for all-day
// events and zoned timestamps otherwise.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, httpClient)
//	if err != nil {
//	    return err
//	}
//
//	events, err := client.FetchEvents(ctx, calendar.Source{
//	    CalendarID: "primary",
//	    Location:   loc,
//	}, 2022, time.November)
package calendar
