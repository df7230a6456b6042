package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/coopcal/internal/instrumentation"
	"github.com/teemow/coopcal/internal/logging"
)

// LoginFunc runs an interactive authorization for config and returns the
// resulting token.
type LoginFunc func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

// Authenticator produces token sources backed by a TokenStore.
type Authenticator struct {
	// Config is the OAuth client configuration. Its Scopes are the scopes
	// a stored token must have been granted.
	Config *oauth2.Config

	// Store persists credentials between runs.
	Store TokenStore

	// Login is invoked when no usable token is stored.
	Login LoginFunc

	// HTTPClient, if set, is used for requests to the token endpoint.
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

func (a *Authenticator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *Authenticator) tokenContext(ctx context.Context) context.Context {
	if a.HTTPClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, a.HTTPClient)
	}
	return ctx
}

// TokenSource returns a token source for the stored credentials.
//
// Stored credentials that are missing, unreadable, or lack a required scope
// lead to an interactive login. An expired token is refreshed, falling back
// to a login when the refresh fails. Every new token is saved, including
// tokens refreshed later through the returned source.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if a.Config == nil || a.Store == nil {
		return nil, fmt.Errorf("authenticator requires an OAuth config and a token store")
	}
	logger := logging.WithOperation(a.logger(), "oauth.token_source")

	creds, err := a.Store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		logger.Info("no stored token, starting login")
		creds = nil
	case err != nil:
		logger.Warn("stored token unusable, starting login", logging.Err(err))
		creds = nil
	case !HasScopes(creds.Scopes, a.Config.Scopes):
		logger.Info("stored token lacks required scopes, starting login",
			slog.Any("granted", creds.Scopes),
			slog.Any("required", a.Config.Scopes))
		creds = nil
	}

	var token *oauth2.Token
	scopes := a.Config.Scopes

	if creds != nil {
		token = creds.Token
		scopes = creds.Scopes

		if !token.Valid() {
			token = a.refresh(ctx, logger, token)
			if token != nil {
				if err := a.save(token, scopes); err != nil {
					return nil, err
				}
			}
		}
	}

	if token == nil {
		token, err = a.login(ctx)
		if err != nil {
			return nil, err
		}
		scopes = grantedScopes(token, a.Config.Scopes)
		if !HasScopes(scopes, a.Config.Scopes) {
			return nil, fmt.Errorf("login did not grant the required scopes %v", a.Config.Scopes)
		}
		if err := a.save(token, scopes); err != nil {
			return nil, err
		}
	}

	return &persistingTokenSource{
		base:   a.Config.TokenSource(a.tokenContext(ctx), token),
		store:  a.Store,
		scopes: scopes,
		last:   token.AccessToken,
		logger: logger,
	}, nil
}

// refresh exchanges the refresh token for a new access token. It returns
// nil when the token cannot be refreshed.
func (a *Authenticator) refresh(ctx context.Context, logger *slog.Logger, token *oauth2.Token) *oauth2.Token {
	if token.RefreshToken == "" {
		logger.Info("stored token expired without refresh token, starting login")
		a.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
		return nil
	}

	newToken, err := a.Config.TokenSource(a.tokenContext(ctx), token).Token()
	if err != nil {
		logger.Warn("token refresh failed, starting login", logging.Err(err))
		a.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return nil
	}

	logger.Info("refreshed access token")
	a.Metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	return newToken
}

func (a *Authenticator) login(ctx context.Context) (*oauth2.Token, error) {
	if a.Login == nil {
		a.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("interactive login required but not available")
	}

	token, err := a.Login(a.tokenContext(ctx), a.Config)
	if err != nil {
		a.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("login failed: %w", err)
	}

	a.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	return token, nil
}

func (a *Authenticator) save(token *oauth2.Token, scopes []string) error {
	if err := a.Store.Save(&Credentials{Token: token, Scopes: scopes}); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// grantedScopes returns the scopes reported by the token endpoint, or
// requested when the response does not list them.
func grantedScopes(token *oauth2.Token, requested []string) []string {
	if s, ok := token.Extra("scope").(string); ok && s != "" {
		return strings.Fields(s)
	}
	return requested
}

// persistingTokenSource saves every token it has not seen before.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	store  TokenStore
	scopes []string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if token.AccessToken != p.last {
		p.last = token.AccessToken
		// Log but don't fail - we still have the new token
		if err := p.store.Save(&Credentials{Token: token, Scopes: p.scopes}); err != nil {
			p.logger.Warn("failed to save refreshed token", logging.Err(err))
		}
	}

	return token, nil
}
