package google

// DefaultScopes are the read-only Calendar scopes coopcal requests.
//
// The scopes provide access to:
//   - the list of calendars visible to the user
//   - events of calendars the user owns
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/calendar.calendarlist.readonly",
	"https://www.googleapis.com/auth/calendar.events.owned.readonly",
}

// HasScopes reports whether every scope in required was granted.
func HasScopes(granted, required []string) bool {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	for _, s := range required {
		if !have[s] {
			return false
		}
	}
	return true
}
