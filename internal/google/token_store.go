package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by a TokenStore that holds no credentials yet.
var ErrNoToken = errors.New("no stored OAuth token")

// Credentials is an OAuth token together with the scopes it was granted for.
type Credentials struct {
	Token  *oauth2.Token
	Scopes []string
}

// TokenStore loads and saves the credentials of a single user.
type TokenStore interface {
	// Load returns the stored credentials, or ErrNoToken when there are none.
	Load() (*Credentials, error)

	// Save replaces the stored credentials.
	Save(*Credentials) error
}

// tokenFile is the on-disk layout of a token file.
type tokenFile struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes"`
}

// FileTokenStore keeps credentials in a JSON file readable only by the owner.
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore creates a token store backed by the file at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// DefaultTokenPath returns the token file location under the user cache
// directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine cache directory: %w", err)
	}
	return filepath.Join(dir, "coopcal", "token.json"), nil
}

// Load reads the token file.
func (s *FileTokenStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.Path, err)
	}
	if f.Token == "" && f.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no token", s.Path)
	}

	return &Credentials{
		Token: &oauth2.Token{
			AccessToken:  f.Token,
			RefreshToken: f.RefreshToken,
			TokenType:    f.TokenType,
			Expiry:       f.Expiry,
		},
		Scopes: f.Scopes,
	}, nil
}

// Save writes the token file atomically with mode 0600.
func (s *FileTokenStore) Save(c *Credentials) error {
	if c == nil || c.Token == nil {
		return fmt.Errorf("cannot save empty credentials")
	}

	data, err := json.MarshalIndent(tokenFile{
		Token:        c.Token.AccessToken,
		RefreshToken: c.Token.RefreshToken,
		TokenType:    c.Token.TokenType,
		Expiry:       c.Token.Expiry,
		Scopes:       c.Scopes,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary token file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}
