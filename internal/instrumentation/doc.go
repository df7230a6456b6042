// Package instrumentation provides OpenTelemetry instrumentation for coopcal.
//
// A coopcal run is short-lived, so telemetry is opt-in and exported at the
// end of the run:
//   - OpenTelemetry metrics for Google API calls, OAuth operations and fetched events
//   - Distributed tracing for Google API calls and MCP tool invocations
//   - Prometheus metrics pushed to a Pushgateway, or OTLP/stdout export
//
// # Metrics
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth Authentication Metrics:
//   - oauth_auth_total: Counter of interactive logins by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// Calendar Metrics:
//   - calendar_events_fetched_total: Counter of normalized events by kind (all_day, timed)
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool and status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - OTEL_SERVICE_NAME: Service name (default: coopcal)
//   - PROMETHEUS_PUSHGATEWAY_URL: Pushgateway receiving the run's metrics
//   - PROMETHEUS_PUSH_JOB: Pushgateway job name (default: service name)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx) // pushes to the Pushgateway when configured
//
//	provider.Metrics().RecordGoogleAPIOperation(ctx, "calendar", "events.list", "success", time.Since(start))
package instrumentation
