package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/coopcal/internal/dates"
	"github.com/teemow/coopcal/internal/instrumentation"
	"github.com/teemow/coopcal/internal/logging"
)

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

type clientOptions struct {
	apiOptions []option.ClientOption
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

// WithEndpoint overrides the Calendar API base URL.
func WithEndpoint(endpoint string) Option {
	return func(o *clientOptions) {
		o.apiOptions = append(o.apiOptions, option.WithEndpoint(endpoint))
	}
}

// WithMetrics records API operations and fetched events on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient creates a Calendar client that sends requests through
// httpClient, which is expected to carry the OAuth credentials.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}

	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	apiOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, o.apiOptions...)
	svc, err := calendar.NewService(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:     svc,
		metrics: o.metrics,
		logger:  o.logger,
	}, nil
}

// FetchEvents returns the events of the given month of src's calendar.
//
// Exactly one events.list request is made. Request failures are reported
// as ErrFetchFailed; an event with malformed dates fails the whole fetch
// with dates.ErrInvalidFormat.
func (c *Client) FetchEvents(ctx context.Context, src Source, year int, month time.Month) ([]Event, error) {
	if src.CalendarID == "" {
		return nil, fmt.Errorf("calendar id cannot be empty")
	}
	rng, err := dates.NewMonthRange(year, month, src.Location)
	if err != nil {
		return nil, err
	}

	logger := c.logger.With(logging.Operation("events.list"), logging.Calendar(src.CalendarID), logging.Month(year, month))

	attrs := instrumentation.NewSpanAttributeBuilder().
		WithCalendar(src.CalendarID).
		WithWindow(rng.TimeMin(), rng.TimeMax())
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.list", attrs.Build()...)
	defer span.End()

	start := time.Now()
	resp, err := c.svc.Events.List(src.CalendarID).
		TimeMin(rng.TimeMin()).
		TimeMax(rng.TimeMax()).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, "events.list", instrumentation.StatusError, duration)
		instrumentation.SetSpanError(span, err)
		logger.Error("event fetch failed", logging.Duration(duration), logging.Err(err))
		return nil, fmt.Errorf("%w: calendar %s: %w", ErrFetchFailed, src.CalendarID, err)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, "events.list", instrumentation.StatusSuccess, duration)

	if resp.NextPageToken != "" {
		logger.Warn("more events available than returned in one page; only the first page is used",
			slog.Int("returned", len(resp.Items)))
	}

	events := make([]Event, 0, len(resp.Items))
	allDay := 0
	for _, item := range resp.Items {
		ev, err := toEvent(item)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			return nil, fmt.Errorf("failed to normalize event: %w", err)
		}
		if ev.IsAllDay {
			allDay++
		}
		events = append(events, ev)
	}

	c.metrics.RecordEventsFetched(ctx, instrumentation.EventKindAllDay, allDay)
	c.metrics.RecordEventsFetched(ctx, instrumentation.EventKindTimed, len(events)-allDay)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithEventCount(len(events)).Build()...)
	instrumentation.SetSpanSuccess(span)

	logger.Debug("fetched events",
		slog.String("time_min", rng.TimeMin()),
		slog.String("time_max", rng.TimeMax()),
		slog.Int("count", len(events)),
		logging.Duration(duration))

	return events, nil
}

// ListCalendars lists the calendars visible to the credentials.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "calendarList.list")
	defer span.End()

	start := time.Now()
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, "calendarList.list", instrumentation.StatusError, duration)
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("%w: failed to list calendars: %w", ErrFetchFailed, err)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, "calendarList.list", instrumentation.StatusSuccess, duration)
	instrumentation.SetSpanSuccess(span)

	if list.NextPageToken != "" {
		c.logger.Warn("more calendars available than returned in one page", logging.Operation("calendarList.list"))
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}

	return calendars, nil
}
