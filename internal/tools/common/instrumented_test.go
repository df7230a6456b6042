package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/teemow/coopcal/internal/calendar"
	"github.com/teemow/coopcal/internal/instrumentation"
	"github.com/teemow/coopcal/internal/server"
)

type nopService struct{}

func (nopService) FetchEvents(context.Context, calendar.Source, int, time.Month) ([]calendar.Event, error) {
	return nil, nil
}

func (nopService) ListCalendars(context.Context) ([]calendar.CalendarInfo, error) {
	return nil, nil
}

func newServerContext(t *testing.T, metrics *instrumentation.Metrics, logger *slog.Logger) *server.ServerContext {
	t.Helper()

	sc, err := server.NewServerContext(context.Background(), func(context.Context) (server.CalendarService, error) {
		return nopService{}, nil
	}, server.Options{CalendarID: "primary", Location: time.UTC, Metrics: metrics, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(sc.Shutdown)
	return sc
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	recorder := recordSpans(t)
	sc := newServerContext(t, nil, nil)

	called := false
	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, called)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.test_tool", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	recorder := recordSpans(t)
	var logs bytes.Buffer
	sc := newServerContext(t, nil, slog.New(slog.NewTextHandler(&logs, nil)))

	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("boom")
	})

	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	assert.EqualError(t, err, "boom")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, logs.String(), "tool invocation failed")
	assert.Contains(t, logs.String(), "tool=test_tool")
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	recorder := recordSpans(t)
	sc := newServerContext(t, nil, nil)

	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("bad input"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestInstrumentedToolHandler_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := instrumentation.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	sc := newServerContext(t, metrics, nil)

	ok := InstrumentedToolHandler("good_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})
	bad := InstrumentedToolHandler("good_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("nope"), nil
	})

	_, _ = ok(context.Background(), mcp.CallToolRequest{})
	_, _ = ok(context.Background(), mcp.CallToolRequest{})
	_, _ = bad(context.Background(), mcp.CallToolRequest{})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byStatus := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			sum, isSum := m.Data.(metricdata.Sum[int64])
			require.True(t, isSum)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				byStatus[status.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"success": 2, "error": 1}, byStatus)
}
