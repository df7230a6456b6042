package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coopcal/internal/server"
)

// Resource URIs.
const (
	SettingsURI  = "coopcal://settings"
	CalendarsURI = "coopcal://calendars"
)

// RegisterResources registers the read-only coopcal resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	settingsResource := mcp.NewResource(
		SettingsURI,
		"Calendar Settings",
		mcp.WithResourceDescription("The default calendar and timezone used when a tool call names none"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(ctx, request, sc)
	})

	calendarsResource := mcp.NewResource(
		CalendarsURI,
		"Calendars",
		mcp.WithResourceDescription("Calendars visible to the authorized Google account"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendars(ctx, request, sc)
	})

	return nil
}

// handleSettings does not touch the network, so it works before login.
func handleSettings(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	settings := map[string]interface{}{
		"calendarId": sc.DefaultCalendarID(),
		"timezone":   sc.DefaultLocation().String(),
	}
	return jsonContents(request.Params.URI, settings)
}

func handleCalendars(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return nil, err
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return jsonContents(request.Params.URI, calendars)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
