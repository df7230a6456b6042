package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/coopcal/internal/instrumentation"
	"github.com/teemow/coopcal/internal/resources"
	"github.com/teemow/coopcal/internal/server"
	"github.com/teemow/coopcal/internal/tools/calendar_tools"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing read-only
calendar tools:
  - calendar_list_month_events: events of one month
  - calendar_list_calendars: calendars visible to the credentials

and the resources coopcal://settings and coopcal://calendars.

Logs and login instructions go to stderr. If no token is stored yet the
first tool call opens the browser for authorization.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx, cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	// stdout carries the protocol
	if err := checkStdioExporters(instrumentation.DefaultConfig()); err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		func(ctx context.Context) (server.CalendarService, error) {
			client, err := a.calendarClient(ctx)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		server.Options{
			CalendarID: a.cfg.CalendarID,
			Location:   a.loc,
			Metrics:    a.provider.Metrics(),
			Logger:     a.logger,
		})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer serverContext.Shutdown()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	a.logger.Info("starting MCP server on stdio", "calendar_id", a.cfg.CalendarID, "timezone", a.cfg.Timezone)
	return runStdioServer(mcpSrv)
}

func checkStdioExporters(cfg instrumentation.Config) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.MetricsExporter == instrumentation.ExporterStdout || cfg.TracingExporter == instrumentation.ExporterStdout {
		return fmt.Errorf("stdout exporters cannot be used with the stdio transport")
	}
	return nil
}

func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("coopcal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register Calendar tools: %w", err)
	}
	if err := resources.RegisterResources(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}
	return mcpSrv, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
