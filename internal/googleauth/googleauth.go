// Package googleauth loads the OAuth client and token shared by the Sheets
// exporter and the Google Tasks importer.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
	gtasks "google.golang.org/api/tasks/v1"

	"taskfin/internal/config"
)

// Scopes requested by oauth-init. One token serves both integrations.
var Scopes = []string{gsheet.SpreadsheetsScope, gtasks.TasksReadonlyScope}

// Credentials selects where the client secret and token are read from.
// Inline JSON wins over a file path.
type Credentials struct {
	ClientFile string
	ClientJSON string
	TokenFile  string
	TokenJSON  string
}

func FromConfig(cfg *config.Config) Credentials {
	return Credentials{
		ClientFile: cfg.GoogleOAuthClientFile,
		ClientJSON: cfg.GoogleOAuthClientJSON,
		TokenFile:  cfg.GoogleOAuthTokenFile,
		TokenJSON:  cfg.GoogleOAuthTokenJSON,
	}
}

func readSource(inline, path, what string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(path) != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s file: %w", what, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("missing %s (set the JSON or FILE variable)", what)
}

// ClientConfig parses the OAuth client secret for scopes.
func (c Credentials) ClientConfig(scopes ...string) (*oauth2.Config, error) {
	b, err := readSource(c.ClientJSON, c.ClientFile, "oauth client")
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		scopes = Scopes
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// Token reads the stored OAuth token.
func (c Credentials) Token() (*oauth2.Token, error) {
	b, err := readSource(c.TokenJSON, c.TokenFile, "oauth token")
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("oauth token: no access or refresh token")
	}
	return &tok, nil
}

// HTTPClient returns an authorized client that refreshes the token as
// needed and reuses pooled connections.
func (c Credentials) HTTPClient(ctx context.Context, scopes ...string) (*http.Client, error) {
	cfg, err := c.ClientConfig(scopes...)
	if err != nil {
		return nil, err
	}
	tok, err := c.Token()
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, NewHTTPClientWithPooling())
	return cfg.Client(ctx, tok), nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// NewHTTPClientWithPooling creates an HTTP client tuned for Google APIs
// with connection pooling, timeouts and keep-alive.
func NewHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
