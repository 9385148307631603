package tokenstore_test

import (
	"testing"
	"time"

	"todo/internal/tokenstore"
)

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore() (*tokenstore.Store, *tokenstore.MemoryStorage, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	storage := tokenstore.NewMemoryStorage()
	return tokenstore.New(storage, tokenstore.WithClock(clock.Now)), storage, clock
}

func seconds(n int) *time.Duration {
	d := time.Duration(n) * time.Second
	return &d
}

func TestStore_GetPrefersIDToken(t *testing.T) {
	store, _, _ := newStore()

	if err := store.Save(tokenstore.Grant{IDToken: "id-1", AccessToken: "access-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	tok, ok := store.Get()
	if !ok {
		t.Fatal("expected a token")
	}
	if tok.Value != "id-1" || tok.Kind != tokenstore.KindIDToken {
		t.Errorf("expected id token, got %+v", tok)
	}
}

func TestStore_GetFallsBackToAccessToken(t *testing.T) {
	store, _, _ := newStore()

	if err := store.Save(tokenstore.Grant{AccessToken: "access-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	tok, ok := store.Get()
	if !ok {
		t.Fatal("expected a token")
	}
	if tok.Value != "access-1" || tok.Kind != tokenstore.KindAccessToken {
		t.Errorf("expected access token, got %+v", tok)
	}
}

func TestStore_GetEmpty(t *testing.T) {
	store, _, _ := newStore()

	if tok, ok := store.Get(); ok {
		t.Errorf("expected no token, got %+v", tok)
	}
}

func TestStore_SaveKeepsAbsentValues(t *testing.T) {
	store, storage, _ := newStore()

	if err := store.Save(tokenstore.Grant{IDToken: "id-1", ExpiresIn: seconds(60)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(tokenstore.Grant{AccessToken: "access-2"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if v, _ := storage.Get(tokenstore.KeyIDToken); v != "id-1" {
		t.Errorf("expected idToken to survive, got %q", v)
	}
	if _, ok := storage.Get(tokenstore.KeyTokenExpiry); !ok {
		t.Error("expected tokenExpiry to survive")
	}
}

func TestStore_ExpiryLayout(t *testing.T) {
	store, storage, clock := newStore()

	if err := store.Save(tokenstore.Grant{IDToken: "id", ExpiresIn: seconds(3600)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	want := clock.Now().Add(time.Hour).UnixMilli()
	got, _ := storage.Get(tokenstore.KeyTokenExpiry)
	if got != formatInt(want) {
		t.Errorf("expected tokenExpiry %d, got %q", want, got)
	}

	tok, _ := store.Get()
	if !tok.Expiry.Equal(time.UnixMilli(want)) {
		t.Errorf("expected expiry %v, got %v", time.UnixMilli(want), tok.Expiry)
	}
}

func TestStore_NoExpiryNeverExpires(t *testing.T) {
	store, _, clock := newStore()

	if err := store.Save(tokenstore.Grant{IDToken: "id"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	clock.Advance(365 * 24 * time.Hour)

	if store.IsExpired() {
		t.Error("token without expiry should never expire")
	}
}

func TestStore_ZeroLifetimeBoundary(t *testing.T) {
	store, _, clock := newStore()

	if err := store.Save(tokenstore.Grant{IDToken: "id", ExpiresIn: seconds(0)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Equal instants are not "after".
	if store.IsExpired() {
		t.Error("expected not expired at the exact expiry instant")
	}

	clock.Advance(time.Millisecond)
	if !store.IsExpired() {
		t.Error("expected expired once the clock passes the expiry")
	}
}

func TestStore_UnparsableExpiryIsIgnored(t *testing.T) {
	store, storage, _ := newStore()

	storage.Set(tokenstore.KeyIDToken, "id")
	storage.Set(tokenstore.KeyTokenExpiry, "NaN")

	if store.IsExpired() {
		t.Error("unparsable expiry should be treated as non-expiring")
	}
}

func TestStore_Clear(t *testing.T) {
	store, storage, _ := newStore()

	if err := store.Save(tokenstore.Grant{IDToken: "id", AccessToken: "acc", ExpiresIn: seconds(10)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	for _, key := range []string{tokenstore.KeyIDToken, tokenstore.KeyAccessToken, tokenstore.KeyTokenExpiry} {
		if _, ok := storage.Get(key); ok {
			t.Errorf("expected %s to be removed", key)
		}
	}
	if _, ok := store.Get(); ok {
		t.Error("expected no token after clear")
	}
}
