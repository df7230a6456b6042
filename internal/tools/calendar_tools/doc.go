// Package calendar_tools provides read-only MCP (Model Context Protocol)
// tools for Google Calendar.
//
// calendar_list_month_events lists the events of one month of a calendar,
// defaulting to the configured co-op calendar and timezone.
// calendar_list_calendars lists the calendars the credentials can see.
package calendar_tools
