package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// CallbackTimeout bounds how long Wait blocks for the browser.
	CallbackTimeout = 5 * time.Minute

	// maxFragmentBytes bounds the posted fragment.
	maxFragmentBytes = 64 << 10
)

// ErrStateMismatch means the redirect did not carry the state sent with
// the login request.
var ErrStateMismatch = errors.New("state mismatch in login redirect")

// ErrNoToken means the redirect carried no token.
var ErrNoToken = errors.New("no token in login redirect")

// callbackPage runs in the browser: the fragment never reaches the
// server, so the page posts it back and clears it from the address bar.
const callbackPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>todo login</title></head>
<body>
<p id="msg">Completing login...</p>
<script>
const fragment = window.location.hash.substring(1);
history.replaceState(null, "", window.location.pathname);
fetch(window.location.pathname, {method: "POST", headers: {"Content-Type": "text/plain"}, body: fragment})
  .then(r => r.text())
  .then(t => { document.getElementById("msg").textContent = t; })
  .catch(e => { document.getElementById("msg").textContent = "Login failed: " + e; });
</script>
</body></html>
`

// Callback receives the implicit-flow redirect on the loopback address
// named by the provider's redirect URI.
type Callback struct {
	flow     *Flow
	state    string
	path     string
	listener net.Listener
	server   *http.Server
	doneCh   chan struct{}
	errCh    chan error
}

// ListenCallback binds the redirect URI's host and port. The redirect URI
// must be a plain-http loopback address with an explicit port.
func ListenCallback(flow *Flow, state string) (*Callback, error) {
	u, err := url.Parse(flow.provider.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if u.Scheme != "http" || !isLoopback(u.Hostname()) || u.Port() == "" {
		return nil, fmt.Errorf("redirect URI %q is not a loopback address with a port (use: todo login --url)", flow.provider.RedirectURI)
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("could not bind to %s for login callback: %w", u.Host, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	c := &Callback{
		flow:     flow,
		state:    state,
		path:     path,
		listener: listener,
		doneCh:   make(chan struct{}, 1),
		errCh:    make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, c.handle)
	c.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := c.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			c.fail(err)
		}
	}()

	return c, nil
}

// Addr returns the bound address.
func (c *Callback) Addr() net.Addr { return c.listener.Addr() }

// Wait blocks until the tokens are stored, the redirect fails, the
// timeout passes or ctx is done. The server is shut down on return.
func (c *Callback) Wait(ctx context.Context, timeout time.Duration) error {
	defer c.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.doneCh:
		return nil
	case err := <-c.errCh:
		return err
	case <-timer.C:
		return errors.New("login callback timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the server.
func (c *Callback) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}

func (c *Callback) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, callbackPage)

	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFragmentBytes))
		if err != nil {
			http.Error(w, "Login failed: unreadable redirect", http.StatusBadRequest)
			c.fail(fmt.Errorf("failed to read redirect fragment: %w", err))
			return
		}
		if err := c.accept(string(body)); err != nil {
			http.Error(w, "Login failed: "+err.Error(), http.StatusBadRequest)
			c.fail(err)
			return
		}
		io.WriteString(w, "Authentication successful. You may close this window.")
		select {
		case c.doneCh <- struct{}{}:
		default:
		}

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (c *Callback) accept(fragment string) error {
	if c.state != "" {
		params, _ := url.ParseQuery(fragment)
		if params.Get("error") == "" && params.Get("state") != c.state {
			return ErrStateMismatch
		}
	}
	found, err := c.flow.ParseRedirectFragment(fragment)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoToken
	}
	return nil
}

func (c *Callback) fail(err error) {
	select {
	case c.errCh <- err:
	default:
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
