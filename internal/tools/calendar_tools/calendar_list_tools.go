package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coopcal/internal/server"
	"github.com/teemow/coopcal/internal/tools/common"
)

const listCalendarsTool = "calendar_list_calendars"

// RegisterCalendarListTools registers calendar list tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listCalendars := mcp.NewTool(listCalendarsTool,
		mcp.WithDescription("List all calendars accessible to the user"),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default) or 'json'"),
		),
	)

	s.AddTool(listCalendars, common.InstrumentedToolHandler(listCalendarsTool, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	format, err := outputFormat(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}

	if format == formatJSON {
		data, err := json.MarshalIndent(calendars, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode calendars: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendar(s):\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cal.Summary)
		fmt.Fprintf(&b, "   ID: %s\n", cal.ID)
		if cal.AccessRole != "" {
			fmt.Fprintf(&b, "   Access Role: %s\n", cal.AccessRole)
		}
		if cal.Primary {
			b.WriteString("   [PRIMARY]\n")
		}
		if cal.TimeZone != "" {
			fmt.Fprintf(&b, "   Time Zone: %s\n", cal.TimeZone)
		}
		if cal.ID == sc.DefaultCalendarID() {
			b.WriteString("   [DEFAULT]\n")
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
