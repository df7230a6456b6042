package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/coopcal/internal/calendar"
	"github.com/teemow/coopcal/internal/instrumentation"
)

// ErrShutdown is returned once the server context has been shut down.
var ErrShutdown = errors.New("server context is shut down")

// CalendarService is the subset of the calendar client the MCP tools use.
type CalendarService interface {
	FetchEvents(ctx context.Context, src calendar.Source, year int, month time.Month) ([]calendar.Event, error)
	ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error)
}

// ClientFactory creates an authenticated calendar service. It is called
// lazily on the first tool invocation that needs one.
type ClientFactory func(ctx context.Context) (CalendarService, error)

// Options configures a ServerContext.
type Options struct {
	// CalendarID is used when a tool call does not name a calendar.
	CalendarID string
	// Location is used when a tool call does not name a timezone.
	Location *time.Location
	Metrics  *instrumentation.Metrics
	Logger   *slog.Logger
}

// ServerContext holds the state shared by the MCP tool handlers.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	factory ClientFactory
	opts    Options

	mu       sync.Mutex
	client   CalendarService
	shutdown bool
}

// NewServerContext creates a new server context. The factory is not called
// until a tool first asks for the calendar client.
func NewServerContext(ctx context.Context, factory ClientFactory, opts Options) (*ServerContext, error) {
	if factory == nil {
		return nil, fmt.Errorf("client factory is required")
	}
	if opts.CalendarID == "" {
		return nil, fmt.Errorf("default calendar id is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		factory: factory,
		opts:    opts,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CalendarClient returns the cached calendar service, creating it on first
// use. A failed creation is not cached so the next call retries.
func (sc *ServerContext) CalendarClient(ctx context.Context) (CalendarService, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sc.client != nil {
		return sc.client, nil
	}

	client, err := sc.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	sc.client = client
	return client, nil
}

// SetCalendarClient replaces the cached calendar service.
func (sc *ServerContext) SetCalendarClient(client CalendarService) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.client = client
}

// DefaultCalendarID returns the calendar used when a call names none.
func (sc *ServerContext) DefaultCalendarID() string {
	return sc.opts.CalendarID
}

// DefaultLocation returns the timezone used when a call names none.
func (sc *ServerContext) DefaultLocation() *time.Location {
	return sc.opts.Location
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.opts.Logger
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops the cached client.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return
	}
	sc.shutdown = true
	sc.client = nil
	sc.cancel()
}
