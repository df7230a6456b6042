package google

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadOAuthConfig reads a Google client-secrets JSON file (as downloaded from
// the Cloud console for a "Desktop app" client) and returns the OAuth2
// configuration for the given scopes. The redirect URL is set by the login
// flow.
func LoadOAuthConfig(path string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}

	return config, nil
}

// HTTPClient returns an HTTP client that authenticates requests with ts.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func HTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	base := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		// A non-nil empty map disables the automatic HTTP/2 upgrade.
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}

	// Carry a caller supplied proxy or test transport through.
	if hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && hc != nil && hc.Transport != nil {
		return &http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: hc.Transport},
		}
	}

	return &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: base},
	}
}
