package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const callbackPath = "/callback"

// LoopbackLogin runs the installed-app authorization flow: it serves the
// redirect on a loopback address, sends the user to the consent page and
// exchanges the returned code using PKCE.
type LoopbackLogin struct {
	// Out receives the authorization URL and instructions.
	Out io.Writer

	// OpenBrowser tries to open the authorization URL in the default browser.
	OpenBrowser bool

	// Addr is the listen address for the redirect (default 127.0.0.1:0).
	Addr string

	Logger *slog.Logger

	// openURL replaces the platform browser launcher in tests.
	openURL func(url string) error
}

type callbackResult struct {
	code string
	err  error
}

// Login implements LoginFunc.
func (l *LoopbackLogin) Login(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := l.Out
	if out == nil {
		out = io.Discard
	}
	addr := l.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}

	conf := *config
	conf.RedirectURL = "http://" + listener.Addr().String() + callbackPath

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, results))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("OAuth callback server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintf(out, "Open the following URL in your browser to authorize coopcal:\n\n%s\n\n", authURL)
	if l.OpenBrowser {
		open := l.openURL
		if open == nil {
			open = openBrowser
		}
		if err := open(authURL); err != nil {
			logger.Debug("could not open browser", "error", err)
		}
	}
	fmt.Fprintln(out, "Waiting for authorization...")

	var result callbackResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization aborted: %w", ctx.Err())
	case result = <-results:
	}
	if result.err != nil {
		return nil, result.err
	}

	token, err := conf.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	fmt.Fprintln(out, "Authorization complete.")
	return token, nil
}

// callbackHandler receives the authorization redirect. Only the first
// result is delivered.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var result callbackResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "invalid state parameter", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			result.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
			http.Error(w, "Authorization failed. You can close this window.", http.StatusForbidden)
		case q.Get("code") == "":
			result.err = fmt.Errorf("authorization response did not include a code")
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
		default:
			result.code = q.Get("code")
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, "Authorization received. You can close this window.")
		}

		select {
		case results <- result:
		default:
		}
	})
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
