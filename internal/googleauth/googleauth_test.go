package googleauth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"taskfin/internal/config"
)

const clientJSON = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",` +
	`"redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth",` +
	`"token_uri":"https://oauth2.googleapis.com/token"}}`

func TestClientConfig(t *testing.T) {
	creds := Credentials{ClientJSON: clientJSON}
	cfg, err := creds.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if len(cfg.Scopes) != len(Scopes) {
		t.Errorf("Scopes = %v, want defaults", cfg.Scopes)
	}

	_, err = Credentials{ClientJSON: "invalid-json"}.ClientConfig()
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Errorf("expected oauth config error, got %v", err)
	}
	if _, err := (Credentials{}).ClientConfig(); err == nil {
		t.Error("missing client should fail")
	}
	if _, err := (Credentials{ClientFile: filepath.Join(t.TempDir(), "nope.json")}).ClientConfig(); err == nil {
		t.Error("unreadable client file should fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := SaveToken(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := Credentials{TokenFile: path}.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("Token() = %+v", got)
	}

	inline, err := Credentials{TokenJSON: `{"access_token":"inline"}`, TokenFile: path}.Token()
	if err != nil || inline.AccessToken != "inline" {
		t.Errorf("inline JSON should win, got %+v, %v", inline, err)
	}
	if _, err := (Credentials{TokenJSON: `{}`}).Token(); err == nil {
		t.Error("empty token should fail")
	}
}

func TestHTTPClient(t *testing.T) {
	creds := FromConfig(&config.Config{GoogleOAuthClientJSON: clientJSON, GoogleOAuthTokenJSON: `{"access_token":"a"}`})
	client, err := creds.HTTPClient(context.Background())
	if err != nil {
		t.Fatalf("HTTPClient() error = %v", err)
	}
	if _, ok := client.Transport.(*oauth2.Transport); !ok {
		t.Errorf("expected an oauth2 transport, got %T", client.Transport)
	}
}
