package tokenstore

import (
	"errors"
	"math"
	"strconv"
	"time"
)

// Storage keys. The layout is flat strings so the same session can be
// inspected or seeded by hand.
const (
	KeyIDToken     = "idToken"
	KeyAccessToken = "accessToken"
	KeyTokenExpiry = "tokenExpiry" // epoch milliseconds
)

// Kind tells which credential a Token carries.
type Kind string

const (
	KindIDToken     Kind = "id_token"
	KindAccessToken Kind = "access_token"
)

// Token is the bearer credential used for API calls.
type Token struct {
	Value string
	Kind  Kind

	// Expiry is zero when no expiry was recorded; such a token never
	// expires from this client's point of view.
	Expiry time.Time
}

// Grant is the token material returned by the identity provider.
// Empty strings mean "not returned".
type Grant struct {
	IDToken     string
	AccessToken string

	// ExpiresIn is nil when the provider did not send a lifetime.
	ExpiresIn *time.Duration
}

// Store reads and writes the session token material.
// It never performs network I/O.
type Store struct {
	storage Storage
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over storage.
func New(storage Storage, opts ...Option) *Store {
	s := &Store{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save records the grant. Only the values present in g are written;
// previously stored keys are otherwise left as they were.
func (s *Store) Save(g Grant) error {
	var errs []error
	if g.IDToken != "" {
		errs = append(errs, s.storage.Set(KeyIDToken, g.IDToken))
	}
	if g.AccessToken != "" {
		errs = append(errs, s.storage.Set(KeyAccessToken, g.AccessToken))
	}
	if g.ExpiresIn != nil {
		exp := s.now().Add(*g.ExpiresIn).UnixMilli()
		errs = append(errs, s.storage.Set(KeyTokenExpiry, strconv.FormatInt(exp, 10)))
	}
	return errors.Join(errs...)
}

// Get returns the identity token if present, else the access token.
func (s *Store) Get() (Token, bool) {
	tok := Token{Expiry: s.expiry()}
	if v, ok := s.storage.Get(KeyIDToken); ok && v != "" {
		tok.Value, tok.Kind = v, KindIDToken
		return tok, true
	}
	if v, ok := s.storage.Get(KeyAccessToken); ok && v != "" {
		tok.Value, tok.Kind = v, KindAccessToken
		return tok, true
	}
	return Token{}, false
}

// IsExpired reports whether the recorded expiry lies strictly in the past,
// compared at millisecond precision. Without a recorded expiry the token
// is treated as non-expiring.
func (s *Store) IsExpired() bool {
	exp := s.expiry()
	if exp.IsZero() {
		return false
	}
	return s.now().UnixMilli() > exp.UnixMilli()
}

// Clear removes all token material.
func (s *Store) Clear() error {
	return s.storage.Remove(KeyIDToken, KeyAccessToken, KeyTokenExpiry)
}

// expiry parses the stored expiry. Missing, zero or unparsable values
// yield the zero time.
func (s *Store) expiry() time.Time {
	raw, ok := s.storage.Get(KeyTokenExpiry)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil || ms == 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
