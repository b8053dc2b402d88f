package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

func mustSession(t *testing.T, required []string) (*Session, *url.URL) {
	t.Helper()
	base, err := url.Parse("https://tracker.example")
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(base, required)
	if err != nil {
		t.Fatal(err)
	}
	return s, base
}

func TestAuthenticatedDerivedFromStore(t *testing.T) {
	s, base := mustSession(t, nil)

	if s.Authenticated() {
		t.Fatal("fresh session should not be authenticated")
	}

	s.SetCookies(base, []*http.Cookie{{Name: "session", Value: "abc"}})
	if !s.Authenticated() {
		t.Fatal("cookie in jar should make the session authenticated")
	}

	s.Invalidate()
	if s.Authenticated() {
		t.Fatal("invalidate should drop authentication")
	}
}

func TestAuthenticatedRequiredCookies(t *testing.T) {
	s, base := mustSession(t, []string{"uid", "pass"})

	s.SetCookies(base, []*http.Cookie{{Name: "uid", Value: "1"}})
	if s.Authenticated() {
		t.Fatal("one of two required cookies should not authenticate")
	}

	s.SetCookies(base, []*http.Cookie{{Name: "pass", Value: "x"}})
	if !s.Authenticated() {
		t.Fatal("both required cookies present, should be authenticated")
	}
}

func TestTokenCountsAsProof(t *testing.T) {
	s, _ := mustSession(t, nil)
	s.SetToken("passkey", "deadbeef")
	if !s.Authenticated() {
		t.Fatal("stored token should authenticate")
	}
	if s.Token("passkey") != "deadbeef" {
		t.Fatal("token not retrievable")
	}
}

func TestEnsureAuthenticatedFastPath(t *testing.T) {
	s, base := mustSession(t, nil)
	s.SetCookies(base, []*http.Cookie{{Name: "session", Value: "abc"}})

	err := s.EnsureAuthenticated(context.Background(), func(ctx context.Context) error {
		t.Fatal("login must not run when already authenticated")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEnsureAuthenticatedSingleFlight(t *testing.T) {
	s, base := mustSession(t, nil)

	var logins atomic.Int32
	login := func(ctx context.Context) error {
		logins.Add(1)
		s.SetCookies(base, []*http.Cookie{{Name: "session", Value: "abc"}})
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.EnsureAuthenticated(context.Background(), login); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := logins.Load(); got != 1 {
		t.Fatalf("expected exactly 1 login, got %d", got)
	}
}

func TestEnsureAuthenticatedPropagatesError(t *testing.T) {
	s, _ := mustSession(t, nil)
	wantErr := errors.New("bad credentials")

	err := s.EnsureAuthenticated(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected login error, got %v", err)
	}
	if s.Authenticated() {
		t.Fatal("failed login must not mark the session authenticated")
	}
}

func TestPrime(t *testing.T) {
	s, _ := mustSession(t, []string{"uid", "pass"})

	s.Prime("uid=1; pass=abc")
	if !s.Authenticated() {
		t.Fatal("primed cookies should authenticate")
	}

	s2, _ := mustSession(t, []string{"uid", "pass"})
	s2.Prime("garbage-without-equals")
	if s2.Authenticated() {
		t.Fatal("unparseable cookie string should not authenticate")
	}
}
