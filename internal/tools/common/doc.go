// Package common provides helpers shared by the MCP tool packages:
// instrumentation of tool handlers and typed access to tool arguments.
package common
