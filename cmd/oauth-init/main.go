package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"

	"taskfin/internal/cli"
	"taskfin/internal/config"
	"taskfin/internal/googleauth"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	cfg := config.Load()
	oauthCfg, err := googleauth.FromConfig(cfg).ClientConfig(googleauth.Scopes...)
	if err != nil {
		fatal(logger, "oauth config", err)
	}

	// The OAuth client must list http://localhost:<port>/callback as an
	// authorized redirect URI.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := fmt.Sprintf("taskfin-%d", time.Now().UnixNano())
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Callback server failed", "error", err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	select {
	case code := <-codeCh:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		tok, err := oauthCfg.Exchange(ctx, code)
		if err != nil {
			fatal(logger, "token exchange", err)
		}
		outFile := cfg.GoogleOAuthTokenFile
		if outFile == "" {
			outFile = "token.json"
		}
		if err := googleauth.SaveToken(outFile, tok); err != nil {
			fatal(logger, "save token", err)
		}
		logger.Info("Saved token", "path", outFile, "scopes", googleauth.Scopes)
	case <-time.After(5 * time.Minute):
		fatal(logger, "authorization", fmt.Errorf("timed out"))
	case <-sigCh:
		fatal(logger, "authorization", fmt.Errorf("interrupted"))
	}
}

func fatal(logger *slog.Logger, what string, err error) {
	logger.Error("oauth-init failed", "step", what, "error", err)
	os.Exit(1)
}
