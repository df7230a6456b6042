package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/coopcal/internal/calendar"
)

type stubService struct{}

func (stubService) FetchEvents(context.Context, calendar.Source, int, time.Month) ([]calendar.Event, error) {
	return nil, nil
}

func (stubService) ListCalendars(context.Context) ([]calendar.CalendarInfo, error) {
	return nil, nil
}

func TestNewServerContext(t *testing.T) {
	factory := func(context.Context) (CalendarService, error) { return stubService{}, nil }

	_, err := NewServerContext(context.Background(), nil, Options{CalendarID: "primary"})
	assert.Error(t, err)

	_, err = NewServerContext(context.Background(), factory, Options{})
	assert.Error(t, err)

	sc, err := NewServerContext(context.Background(), factory, Options{CalendarID: "primary"})
	require.NoError(t, err)
	assert.Equal(t, "primary", sc.DefaultCalendarID())
	assert.Equal(t, time.Local, sc.DefaultLocation())
	assert.NotNil(t, sc.Logger())
	assert.Nil(t, sc.Metrics())
	assert.NoError(t, sc.Context().Err())
}

func TestCalendarClient_Lazy(t *testing.T) {
	var calls atomic.Int32
	sc, err := NewServerContext(context.Background(), func(context.Context) (CalendarService, error) {
		calls.Add(1)
		return stubService{}, nil
	}, Options{CalendarID: "primary", Location: time.UTC})
	require.NoError(t, err)
	assert.Zero(t, calls.Load(), "factory is not called until a client is needed")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sc.CalendarClient(context.Background())
		}()
	}
	wg.Wait()

	client, err := sc.CalendarClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stubService{}, client)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCalendarClient_RetriesAfterError(t *testing.T) {
	var calls atomic.Int32
	sc, err := NewServerContext(context.Background(), func(context.Context) (CalendarService, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("login cancelled")
		}
		return stubService{}, nil
	}, Options{CalendarID: "primary"})
	require.NoError(t, err)

	_, err = sc.CalendarClient(context.Background())
	assert.ErrorContains(t, err, "login cancelled")

	_, err = sc.CalendarClient(context.Background())
	assert.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestShutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), func(context.Context) (CalendarService, error) {
		return stubService{}, nil
	}, Options{CalendarID: "primary"})
	require.NoError(t, err)

	sc.SetCalendarClient(stubService{})
	assert.False(t, sc.IsShutdown())

	sc.Shutdown()
	sc.Shutdown()

	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)
	_, err = sc.CalendarClient(context.Background())
	assert.ErrorIs(t, err, ErrShutdown)
}
