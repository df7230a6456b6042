// Package google handles OAuth2 credentials for the Google Calendar API.
//
// Credentials are persisted by a TokenStore (a JSON token file by default).
// An Authenticator turns the stored credentials into an oauth2.TokenSource:
// it refreshes expired tokens, falls back to an interactive installed-app
// login when the token is missing, lacks a required scope, or cannot be
// refreshed, and writes every new token back to the store.
//
// The interactive login is a loopback flow: a short-lived HTTP server on
// 127.0.0.1 receives the authorization code, protected by a random state
// and PKCE.
package google
