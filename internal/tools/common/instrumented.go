package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/coopcal/internal/instrumentation"
	"github.com/teemow/coopcal/internal/logging"
	"github.com/teemow/coopcal/internal/server"
)

var errToolResult = errors.New("tool returned an error result")

// InstrumentedToolHandler wraps a tool handler with a span, metrics and a
// debug log line per invocation.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		logger := logging.WithTool(sc.Logger(), toolName)
		start := time.Now()

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			logger.Error("tool invocation failed", logging.Err(err), logging.Duration(duration))
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, errToolResult)
			logger.Warn("tool returned an error result", logging.Duration(duration))
		default:
			instrumentation.SetSpanSuccess(span)
			logger.Debug("tool invocation completed", logging.Duration(duration))
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		return result, err
	}
}
