// Package oauthflow implements the interactive, browser-based token
// acquisition used when the CLI isn't given a bearer token directly: it
// opens the user's browser at an authorization URL, listens on a local
// redirect endpoint for the resulting token, and serves a small static
// confirmation page. This is glue around the core transfer engine, not
// part of it.
package oauthflow

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
)

const callbackPath = "/callback"

const confirmationPage = `<!DOCTYPE html>
<html><head><title>AdaptiveBackup</title></head>
<body><p>Authentication complete. You can close this window.</p></body></html>`

// Acquire opens authorizationURL in the user's browser, listens on a local
// port for the OAuth-style redirect carrying a "token" query parameter, and
// returns it. A random state value guards the redirect against CSRF; a
// callback with a mismatched or missing state is rejected. Blocks until
// the redirect arrives, ctx is canceled, or timeout elapses.
func Acquire(ctx context.Context, authorizationURL string, timeout time.Duration) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("oauthflow: listen for redirect: %w", err)
	}
	defer listener.Close()

	redirectURI := fmt.Sprintf("http://%s%s", listener.Addr().String(), callbackPath)
	state := uuid.NewString()

	tokenCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- fmt.Errorf("oauthflow: redirect state mismatch, possible CSRF")
			return
		}
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token parameter", http.StatusBadRequest)
			errCh <- fmt.Errorf("oauthflow: redirect missing token parameter")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, confirmationPage)
		tokenCh <- token
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("oauthflow: redirect server: %w", err)
		}
	}()
	defer server.Close()

	fullURL, err := appendRedirectParam(authorizationURL, redirectURI, state)
	if err != nil {
		return "", err
	}

	if err := openBrowser(fullURL); err != nil {
		return "", fmt.Errorf("oauthflow: open browser: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case token := <-tokenCh:
		return token, nil
	case err := <-errCh:
		return "", err
	case <-timer.C:
		return "", fmt.Errorf("oauthflow: timed out waiting for browser redirect")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func appendRedirectParam(authorizationURL, redirectURI, state string) (string, error) {
	u, err := url.Parse(authorizationURL)
	if err != nil {
		return "", fmt.Errorf("oauthflow: invalid authorization URL: %w", err)
	}
	q := u.Query()
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// openBrowser launches the platform's default browser on target. There's
// no cross-platform stdlib way to do this; the command choice mirrors what
// every OS-specific "open a URL" snippet in the ecosystem does.
func openBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
