package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecretsJSON = `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "client-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestLoadOAuthConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(clientSecretsJSON), 0600))

	config, err := LoadOAuthConfig(path, DefaultScopes)
	require.NoError(t, err)
	assert.Equal(t, "client-id.apps.googleusercontent.com", config.ClientID)
	assert.Equal(t, "client-secret", config.ClientSecret)
	assert.Equal(t, "https://oauth2.googleapis.com/token", config.Endpoint.TokenURL)
	assert.Equal(t, DefaultScopes, config.Scopes)
}

func TestLoadOAuthConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadOAuthConfig(filepath.Join(dir, "missing.json"), DefaultScopes)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"web": 42}`), 0600))
	_, err = LoadOAuthConfig(bad, DefaultScopes)
	assert.Error(t, err)
}

func TestHasScopes(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required []string
		want     bool
	}{
		{"exact", DefaultScopes, DefaultScopes, true},
		{"superset", append([]string{"openid"}, DefaultScopes...), DefaultScopes, true},
		{"missing one", DefaultScopes[:1], DefaultScopes, false},
		{"none granted", nil, DefaultScopes, false},
		{"none required", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasScopes(tt.granted, tt.required))
		})
	}
}

func TestFileTokenStore_Missing(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileTokenStore(path)

	expiry := time.Date(2022, 11, 2, 14, 0, 0, 0, time.UTC)
	want := &Credentials{
		Token: &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		},
		Scopes: DefaultScopes,
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access", got.Token.AccessToken)
	assert.Equal(t, "refresh", got.Token.RefreshToken)
	assert.Equal(t, "Bearer", got.Token.TokenType)
	assert.True(t, expiry.Equal(got.Token.Expiry))
	assert.Equal(t, DefaultScopes, got.Scopes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"token", "refresh_token", "token_type", "expiry", "scopes"} {
		assert.Contains(t, raw, key)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestFileTokenStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFileTokenStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestFileTokenStore_SaveEmpty(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	assert.Error(t, store.Save(nil))
	assert.Error(t, store.Save(&Credentials{}))
}

// memStore is an in-memory TokenStore.
type memStore struct {
	creds   *Credentials
	loadErr error
	saved   []*Credentials
}

func (m *memStore) Load() (*Credentials, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.creds == nil {
		return nil, ErrNoToken
	}
	return m.creds, nil
}

func (m *memStore) Save(c *Credentials) error {
	m.creds = c
	m.saved = append(m.saved, c)
	return nil
}

// newTokenServer fakes the Google token endpoint. Refresh requests with
// the refresh token "bad" are rejected.
func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var resp map[string]any
		switch r.PostForm.Get("grant_type") {
		case "refresh_token":
			if r.PostForm.Get("refresh_token") == "bad" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			resp = map[string]any{
				"access_token": "refreshed",
				"token_type":   "Bearer",
				"expires_in":   3600,
			}
		case "authorization_code":
			if r.PostForm.Get("code") != "the-code" || r.PostForm.Get("code_verifier") == "" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
				return
			}
			resp = map[string]any{
				"access_token":  "fresh",
				"refresh_token": "new-refresh",
				"token_type":    "Bearer",
				"expires_in":    3600,
				"scope":         strings.Join(DefaultScopes, " "),
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
		Scopes: DefaultScopes,
	}
}

// fakeLogin returns a login func that counts invocations.
func fakeLogin(calls *int) LoginFunc {
	return func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
		*calls++
		return &oauth2.Token{
			AccessToken:  "logged-in",
			RefreshToken: "login-refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		}, nil
	}
}

func TestAuthenticator_ValidToken(t *testing.T) {
	srv := newTokenServer(t)
	store := &memStore{creds: &Credentials{
		Token:  &oauth2.Token{AccessToken: "stored", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)},
		Scopes: DefaultScopes,
	}}
	logins := 0

	auth := &Authenticator{Config: testConfig(srv), Store: store, Login: fakeLogin(&logins)}
	ts, err := auth.TokenSource(context.Background())
	require.NoError(t, err)

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "stored", token.AccessToken)
	assert.Zero(t, logins)
	assert.Empty(t, store.saved)
}

func TestAuthenticator_MissingTokenLogsIn(t *testing.T) {
	srv := newTokenServer(t)
	store := &memStore{}
	logins := 0

	auth := &Authenticator{Config: testConfig(srv), Store: store, Login: fakeLogin(&logins)}
	ts, err := auth.TokenSource(context.Background())
	require.NoError(t, err)

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "logged-in", token.AccessToken)
	assert.Equal(t, 1, logins)
	require.Len(t, store.saved, 1)
	assert.Equal(t, DefaultScopes, store.saved[0].Scopes)
}

func TestAuthenticator_MissingScopesLogsIn(t *testing.T) {
	srv := newTokenServer(t)
	store := &memStore{creds: &Credentials{
		Token:  &oauth2.Token{AccessToken: "stored", Expiry: time.Now().Add(time.Hour)},
		Scopes: DefaultScopes[:1],
	}}
	logins := 0

	auth := &Authenticator{Config: testConfig(srv), Store: store, Login: fakeLogin(&logins)}
	_, err := auth.TokenSource(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, logins)
	assert.Equal(t, "logged-in", store.creds.Token.AccessToken)
}

func TestAuthenticator_UnreadableStoreLogsIn(t *testing.T) {
	srv := newTokenServer(t)
	store := &memStore{loadErr: assert.AnError}
	logins := 0

	auth := &Authenticator{Config: testConfig(srv), Store: store, Login: fakeLogin(&logins)}
	_, err := auth.TokenSource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, logins)
}

func TestAuthenticator_ExpiredTokenRefreshes(t *testing.T) {
	srv := newTokenServer(t)
	store := &memStore{creds: &Credentials{
		Token: &oauth2.Token{
			AccessToken:  "stale",
			RefreshToken: "good",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-time.Hour),
		},
		Scopes: DefaultScopes,
	}}
	logins := 0

	auth := &Authenticator{Config: testConfig(srv), Store: store, Login: fakeLogin(&logins)}
	ts, err := auth.TokenSource(context.Background())
	require.NoError(t, err)

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed", token.AccessToken)
	assert.Zero(t, logins)

	require.Len(t, store.saved, 1, "the refreshed token is saved once")
	assert.Equal(t, "refreshed", store.saved[0].Token.AccessToken)
	assert.Equal(t, "good", store.saved[0].Token.RefreshToken)
	assert.Equal(t, DefaultScopes, store.saved[0].Scopes)
}

func TestAuthenticator_FailedRefreshLogsIn(t *testing.T) {
	srv := newTokenServer(t)
	store := &memStore{creds: &Credentials{
		Token: &oauth2.Token{
			AccessToken:  "stale",
			RefreshToken: "bad",
			Expiry:       time.Now().Add(-time.Hour),
		},
		Scopes: DefaultScopes,
	}}
	logins := 0

	auth := &Authenticator{Config: testConfig(srv), Store: store, Login: fakeLogin(&logins)}
	ts, err := auth.TokenSource(context.Background())
	require.NoError(t, err)

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "logged-in", token.AccessToken)
	assert.Equal(t, 1, logins)
}

func TestAuthenticator_ExpiredWithoutRefreshTokenLogsIn(t *testing.T) {
	srv := newTokenServer(t)
	store := &memStore{creds: &Credentials{
		Token:  &oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Hour)},
		Scopes: DefaultScopes,
	}}
	logins := 0

	auth := &Authenticator{Config: testConfig(srv), Store: store, Login: fakeLogin(&logins)}
	_, err := auth.TokenSource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, logins)
}

func TestAuthenticator_LoginErrors(t *testing.T) {
	srv := newTokenServer(t)

	auth := &Authenticator{Config: testConfig(srv), Store: &memStore{}}
	_, err := auth.TokenSource(context.Background())
	assert.ErrorContains(t, err, "interactive login required")

	auth.Login = func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
		return nil, assert.AnError
	}
	_, err = auth.TokenSource(context.Background())
	assert.ErrorIs(t, err, assert.AnError)

	auth.Login = func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
		token := &oauth2.Token{AccessToken: "narrow", Expiry: time.Now().Add(time.Hour)}
		return token.WithExtra(map[string]any{"scope": DefaultScopes[0]}), nil
	}
	_, err = auth.TokenSource(context.Background())
	assert.ErrorContains(t, err, "did not grant the required scopes")
}

func TestAuthenticator_RequiresConfigAndStore(t *testing.T) {
	_, err := (&Authenticator{}).TokenSource(context.Background())
	assert.Error(t, err)
}

// sequenceSource returns the given tokens in order, repeating the last.
type sequenceSource struct {
	tokens []*oauth2.Token
}

func (s *sequenceSource) Token() (*oauth2.Token, error) {
	t := s.tokens[0]
	if len(s.tokens) > 1 {
		s.tokens = s.tokens[1:]
	}
	return t, nil
}

func TestPersistingTokenSource(t *testing.T) {
	store := &memStore{}
	ts := &persistingTokenSource{
		base: &sequenceSource{tokens: []*oauth2.Token{
			{AccessToken: "first"},
			{AccessToken: "first"},
			{AccessToken: "second"},
			{AccessToken: "second"},
		}},
		store:  store,
		scopes: DefaultScopes,
		last:   "first",
	}

	for i := 0; i < 4; i++ {
		_, err := ts.Token()
		require.NoError(t, err)
	}

	require.Len(t, store.saved, 1)
	assert.Equal(t, "second", store.saved[0].Token.AccessToken)
	assert.Equal(t, DefaultScopes, store.saved[0].Scopes)
}

func TestHTTPClient(t *testing.T) {
	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, 1, r.ProtoMajor)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer"})
	client := HTTPClient(context.Background(), ts)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestLoopbackLogin(t *testing.T) {
	srv := newTokenServer(t)

	var authURL *url.URL
	login := &LoopbackLogin{
		Out:         &strings.Builder{},
		OpenBrowser: true,
		openURL: func(raw string) error {
			u, err := url.Parse(raw)
			if err != nil {
				return err
			}
			authURL = u

			q := u.Query()
			callback := q.Get("redirect_uri") + "?" + url.Values{
				"code":  {"the-code"},
				"state": {q.Get("state")},
			}.Encode()

			resp, err := http.Get(callback)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := login.Login(ctx, testConfig(srv))
	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, "new-refresh", token.RefreshToken)

	require.NotNil(t, authURL)
	q := authURL.Query()
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.True(t, strings.HasPrefix(q.Get("redirect_uri"), "http://127.0.0.1:"))
	assert.Contains(t, login.Out.(*strings.Builder).String(), authURL.String())
}

func TestLoopbackLogin_Cancelled(t *testing.T) {
	srv := newTokenServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&LoopbackLogin{}).Login(ctx, testConfig(srv))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
		wantErr    bool
		delivered  bool
	}{
		{"success", "state=s1&code=abc", http.StatusOK, "abc", false, true},
		{"wrong state", "state=other&code=abc", http.StatusBadRequest, "", false, false},
		{"denied", "state=s1&error=access_denied", http.StatusForbidden, "", true, true},
		{"missing code", "state=s1", http.StatusBadRequest, "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan callbackResult, 1)
			rec := httptest.NewRecorder()
			callbackHandler("s1", results).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			select {
			case r := <-results:
				require.True(t, tt.delivered, "unexpected result delivered")
				assert.Equal(t, tt.wantCode, r.code)
				assert.Equal(t, tt.wantErr, r.err != nil)
			default:
				assert.False(t, tt.delivered, "expected a result")
			}
		})
	}
}
