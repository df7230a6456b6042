// Package cmd implements the command-line interface for coopcal.
//
// The root command takes YEAR and MONTH and prints that month's events as
// log records, JSON or an iCalendar document. Subcommands:
//   - calendars: List the calendars the credentials can read
//   - login: Run the OAuth authorization and store the token
//   - serve: Start the MCP server on stdio
//   - version: Display version information
package cmd
