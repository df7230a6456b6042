package calendar

import "errors"

// ErrFetchFailed is returned when the Calendar API request fails, whatever
// the cause (transport, authentication, or an error response).
var ErrFetchFailed = errors.New("failed to fetch calendar events")
