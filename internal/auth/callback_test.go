package auth_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"todo/internal/auth"
	"todo/internal/tokenstore"
)

func newCallback(t *testing.T, state string) (*auth.Callback, *tokenstore.Store, string) {
	t.Helper()

	p := testProvider()
	p.RedirectURI = "http://127.0.0.1:0/callback"
	store := tokenstore.New(tokenstore.NewMemoryStorage())
	flow := auth.NewFlow(p, store, nil, nil)

	cb, err := auth.ListenCallback(flow, state)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { cb.Close() })
	return cb, store, "http://" + cb.Addr().String() + "/callback"
}

func TestCallback_ServesPage(t *testing.T) {
	_, _, addr := newCallback(t, "")

	resp, err := http.Get(addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "history.replaceState") {
		t.Error("callback page should clear the fragment")
	}
}

func TestCallback_StoresTokens(t *testing.T) {
	cb, store, addr := newCallback(t, "s1")

	errCh := make(chan error, 1)
	go func() { errCh <- cb.Wait(context.Background(), 5*time.Second) }()

	resp, err := http.Post(addr, "text/plain", strings.NewReader("id_token=ID&expires_in=60&state=s1"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("wait: %v", err)
	}
	if tok, ok := store.Get(); !ok || tok.Value != "ID" {
		t.Errorf("expected stored id token, got %+v", tok)
	}
}

func TestCallback_StateMismatch(t *testing.T) {
	cb, store, addr := newCallback(t, "expected")

	errCh := make(chan error, 1)
	go func() { errCh <- cb.Wait(context.Background(), 5*time.Second) }()

	resp, err := http.Post(addr, "text/plain", strings.NewReader("id_token=ID&state=other"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}

	if err := <-errCh; !errors.Is(err, auth.ErrStateMismatch) {
		t.Errorf("expected ErrStateMismatch, got %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("no token should be stored on state mismatch")
	}
}

func TestCallback_NoToken(t *testing.T) {
	cb, _, addr := newCallback(t, "")

	errCh := make(chan error, 1)
	go func() { errCh <- cb.Wait(context.Background(), 5*time.Second) }()

	resp, err := http.Post(addr, "text/plain", strings.NewReader(""))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	if err := <-errCh; !errors.Is(err, auth.ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestCallback_ContextCancelled(t *testing.T) {
	cb, _, _ := newCallback(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cb.Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestListenCallback_RejectsRemoteRedirect(t *testing.T) {
	p := testProvider()
	p.RedirectURI = "https://app.example.com/index.html"
	flow := auth.NewFlow(p, tokenstore.New(tokenstore.NewMemoryStorage()), nil, nil)

	if _, err := auth.ListenCallback(flow, ""); err == nil {
		t.Error("expected error for non-loopback redirect URI")
	}
}
