// Package server provides the state shared by the coopcal MCP tools.
//
// ServerContext carries the default calendar and timezone, the metrics
// recorder and logger, and a calendar client that is created lazily through
// a ClientFactory. Creating the client may trigger the interactive OAuth
// login, so it is deferred until a tool actually needs Google Calendar.
package server
