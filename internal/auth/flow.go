package auth

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todo/internal/tokenstore"
)

// SessionState is the result of a local session check.
type SessionState int

const (
	// SessionNone means no token is stored.
	SessionNone SessionState = iota
	// SessionActive means a token is stored and not expired.
	SessionActive
	// SessionExpired means the stored token is past its recorded expiry.
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionExpired:
		return "expired"
	default:
		return "none"
	}
}

// Redirector sends the user to an identity-provider page.
type Redirector interface {
	Redirect(url string) error
}

// RedirectFunc adapts a function to Redirector.
type RedirectFunc func(url string) error

// Redirect implements Redirector.
func (f RedirectFunc) Redirect(url string) error { return f(url) }

// ProviderError is an error reported by the identity provider in the
// redirect fragment.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return "identity provider error: " + e.Code
	}
	return fmt.Sprintf("identity provider error: %s: %s", e.Code, e.Description)
}

// Flow ties the token store to the identity provider.
type Flow struct {
	provider Provider
	store    *tokenstore.Store
	redirect Redirector
	logger   *slog.Logger
}

// NewFlow creates a Flow. A nil logger discards output.
func NewFlow(provider Provider, store *tokenstore.Store, redirect Redirector, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Flow{
		provider: provider,
		store:    store,
		redirect: redirect,
		logger:   logger,
	}
}

// Provider returns the identity-provider parameters.
func (f *Flow) Provider() Provider { return f.provider }

// Token returns the stored bearer token.
func (f *Flow) Token() (tokenstore.Token, bool) { return f.store.Get() }

// Store returns the token store the flow writes to.
func (f *Flow) Store() *tokenstore.Store { return f.store }

// ParseRedirectFragment stores the tokens carried by an implicit-flow
// redirect fragment ("id_token=…&access_token=…&expires_in=…", with or
// without the leading '#'). It reports whether a token was found. An
// empty fragment is a no-op.
func (f *Flow) ParseRedirectFragment(fragment string) (bool, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return false, nil
	}

	params, err := url.ParseQuery(fragment)
	if err != nil {
		f.logger.Debug("fragment parsed with errors", "error", err)
	}

	if code := params.Get("error"); code != "" {
		return false, &ProviderError{Code: code, Description: params.Get("error_description")}
	}

	grant := tokenstore.Grant{
		IDToken:     params.Get("id_token"),
		AccessToken: params.Get("access_token"),
	}
	if raw := params.Get("expires_in"); raw != "" {
		if secs, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
			d := time.Duration(secs * float64(time.Second))
			grant.ExpiresIn = &d
		} else {
			f.logger.Debug("ignoring non-numeric expires_in", "value", raw)
		}
	}

	if err := f.store.Save(grant); err != nil {
		return false, fmt.Errorf("failed to save tokens: %w", err)
	}

	found := grant.IDToken != "" || grant.AccessToken != ""
	f.logger.Debug("redirect fragment processed",
		"id_token", grant.IDToken != "",
		"access_token", grant.AccessToken != "",
		"expires_in", grant.ExpiresIn != nil)
	return found, nil
}

// FragmentOf returns the fragment of rawURL without the '#'.
func FragmentOf(rawURL string) string {
	_, frag, _ := strings.Cut(rawURL, "#")
	return frag
}

// StripFragment returns rawURL without its fragment, the address to show
// once the tokens have been taken out of it.
func StripFragment(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "#")
	return base
}

// CheckExpiry reports the session state without side effects.
func (f *Flow) CheckExpiry() SessionState {
	if _, ok := f.store.Get(); !ok {
		return SessionNone
	}
	if f.store.IsExpired() {
		return SessionExpired
	}
	return SessionActive
}

// Clear removes the stored session without visiting the provider.
func (f *Flow) Clear() error {
	if err := f.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ForceLogout clears the session and sends the user to the hosted
// logout page.
func (f *Flow) ForceLogout() error {
	if err := f.Clear(); err != nil {
		return err
	}
	if f.redirect == nil {
		return nil
	}
	return f.redirect.Redirect(f.provider.LogoutURL())
}

// IsLoggedIn reports whether a usable token is stored. An expired token
// is not only reported: the session is logged out as part of the check.
// Callers that want the query alone use CheckExpiry.
func (f *Flow) IsLoggedIn() (bool, error) {
	switch f.CheckExpiry() {
	case SessionActive:
		return true, nil
	case SessionExpired:
		f.logger.Debug("token expired, logging out")
		return false, f.ForceLogout()
	default:
		return false, nil
	}
}
