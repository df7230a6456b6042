package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/coopcal/internal/server"
)

func TestNewMCPServer(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), func(context.Context) (server.CalendarService, error) {
		return nil, errors.New("not used")
	}, server.Options{CalendarID: "primary", Location: time.UTC})
	require.NoError(t, err)
	defer sc.Shutdown()

	mcpSrv, err := newMCPServer(sc)
	require.NoError(t, err)

	tools := mcpSrv.ListTools()
	assert.Len(t, tools, 2)
	assert.Contains(t, tools, "calendar_list_month_events")
	assert.Contains(t, tools, "calendar_list_calendars")
}

func TestServeCmd_RejectsArguments(t *testing.T) {
	_, _, err := executeRoot(t, "serve", "extra")
	assert.Error(t, err)
}
