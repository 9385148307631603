// Package auth drives login and logout against the hosted identity
// provider and tracks whether the stored session is usable.
package auth

import (
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Provider holds the fixed parameters of the hosted identity provider.
type Provider struct {
	// Domain is the base URL of the hosted UI, e.g. https://example.auth.region.amazoncognito.com.
	Domain string

	ClientID string

	// RedirectURI receives the implicit-flow fragment after login.
	RedirectURI string

	// LogoutURI is where the provider sends the browser after logout.
	LogoutURI string

	// ResponseType is "token" or "token id_token".
	ResponseType string

	Scopes []string
}

// LoginURL returns the hosted login address. state is omitted when empty.
func (p Provider) LoginURL(state string) string {
	conf := &oauth2.Config{
		ClientID:    p.ClientID,
		RedirectURL: p.RedirectURI,
		Scopes:      p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL: p.base() + "/login",
		},
	}
	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", p.ResponseType))
}

// LogoutURL returns the hosted logout address.
func (p Provider) LogoutURL() string {
	v := url.Values{}
	v.Set("client_id", p.ClientID)
	v.Set("logout_uri", p.logoutURI())
	return p.base() + "/logout?" + v.Encode()
}

func (p Provider) base() string {
	return strings.TrimRight(p.Domain, "/")
}

func (p Provider) logoutURI() string {
	if p.LogoutURI != "" {
		return p.LogoutURI
	}
	return p.RedirectURI
}
