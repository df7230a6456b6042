package calendar_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coopcal/internal/server"
)

// Output formats accepted by the tools.
const (
	formatText = "text"
	formatJSON = "json"
)

// RegisterCalendarTools registers all Calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	RegisterEventTools(s, sc)
	RegisterCalendarListTools(s, sc)
	return nil
}

func outputFormat(args map[string]interface{}) (string, error) {
	format, _ := args["format"].(string)
	switch format {
	case "", formatText:
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	default:
		return "", fmt.Errorf("format must be %q or %q, got %q", formatText, formatJSON, format)
	}
}
