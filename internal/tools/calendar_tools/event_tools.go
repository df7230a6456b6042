package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coopcal/internal/calendar"
	"github.com/teemow/coopcal/internal/dates"
	"github.com/teemow/coopcal/internal/server"
	"github.com/teemow/coopcal/internal/tools/common"
)

const listMonthEventsTool = "calendar_list_month_events"

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listMonthEvents := mcp.NewTool(listMonthEventsTool,
		mcp.WithDescription("List the events of one calendar month. All-day events carry dates, timed events carry ISO-8601 timestamps with offset."),
		mcp.WithNumber("year",
			mcp.Required(),
			mcp.Description("Four-digit year, e.g. 2022"),
		),
		mcp.WithNumber("month",
			mcp.Required(),
			mcp.Description("Month number from 1 (January) to 12 (December)"),
		),
		mcp.WithString("calendarId",
			mcp.Description(fmt.Sprintf("Calendar ID (default: %q)", sc.DefaultCalendarID())),
		),
		mcp.WithString("timezone",
			mcp.Description(fmt.Sprintf("IANA timezone the month boundaries are computed in (default: %q)", sc.DefaultLocation())),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default) or 'json'"),
		),
	)

	s.AddTool(listMonthEvents, common.InstrumentedToolHandler(listMonthEventsTool, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMonthEvents(ctx, request, sc)
		}))
}

func handleListMonthEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	year, found, err := common.IntArg(args, "year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError("year is required"), nil
	}
	if year < 1 || year > 9999 {
		return mcp.NewToolResultError(fmt.Sprintf("year must be between 1 and 9999, got %d", year)), nil
	}

	month, found, err := common.IntArg(args, "month")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError("month is required"), nil
	}
	if month < 1 || month > 12 {
		return mcp.NewToolResultError(fmt.Sprintf("month must be between 1 and 12, got %d", month)), nil
	}

	format, err := outputFormat(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	src := calendar.Source{
		CalendarID: sc.DefaultCalendarID(),
		Location:   sc.DefaultLocation(),
	}
	if id := common.StringArg(args, "calendarId"); id != "" {
		src.CalendarID = id
	}
	if tz := common.StringArg(args, "timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown timezone %q", tz)), nil
		}
		src.Location = loc
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.FetchEvents(ctx, src, year, time.Month(month))
	if err != nil {
		if errors.Is(err, dates.ErrInvalidFormat) {
			return mcp.NewToolResultError(fmt.Sprintf("Calendar returned a malformed date: %v", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	if format == formatJSON {
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode events: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s) in %s %d (%s):\n\n", len(events), time.Month(month), year, src.CalendarID)
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ev)
	}
	return mcp.NewToolResultText(b.String()), nil
}
