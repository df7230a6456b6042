// Package resources provides MCP resources for coopcal. Resources are
// read-only data sources that MCP clients can fetch: the default calendar
// settings and the list of calendars visible to the credentials.
package resources
