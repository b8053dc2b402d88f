// Package session holds per-provider authentication state: a cookie jar and
// a token store. One Session belongs to exactly one provider adapter and
// lives for the life of the process or until explicitly invalidated.
package session

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// Session is the authentication state for one provider. Whether the session
// is authenticated is always derived from the cookie/token store itself;
// there is no separate flag that could fall out of sync.
type Session struct {
	base *url.URL

	// requiredCookies are the cookie names that prove authentication.
	// Empty means any cookie or token counts as proof.
	requiredCookies []string

	// loginMu serializes logins; mu guards the jar and token store. Two
	// locks because a login in flight writes cookies back through
	// SetCookies and must not self-deadlock.
	loginMu sync.Mutex
	mu      sync.Mutex
	jar     http.CookieJar
	tokens  map[string]string
}

// New creates a session scoped to the provider's base URL. requiredCookies
// names the cookies whose presence proves a logged-in session (e.g. "uid"
// and "pass"); nil means any stored cookie or token is proof enough.
func New(base *url.URL, requiredCookies []string) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Session{
		base:            base,
		requiredCookies: requiredCookies,
		jar:             jar,
		tokens:          make(map[string]string),
	}, nil
}

// Session implements http.CookieJar by delegating to its current jar, so
// an HTTP client can keep a single reference across Invalidate calls. The
// transport writes login cookies into it as a side effect of the login
// request.

func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar.SetCookies(u, cookies)
}

func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jar.Cookies(u)
}

// Authenticated reports whether the store currently holds proof of
// authentication. It never performs network I/O.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticatedLocked()
}

func (s *Session) authenticatedLocked() bool {
	cookies := s.jar.Cookies(s.base)

	if len(s.requiredCookies) > 0 {
		for _, name := range s.requiredCookies {
			if !hasCookie(cookies, name) {
				return false
			}
		}
		return true
	}

	if len(s.tokens) > 0 {
		return true
	}
	for _, c := range cookies {
		if c.Value != "" {
			return true
		}
	}
	return false
}

// EnsureAuthenticated returns immediately when the store already holds
// proof of authentication; otherwise it runs login. Logins for one provider
// are serialized: concurrent callers block until the first login settles
// and then observe its result through the store.
func (s *Session) EnsureAuthenticated(ctx context.Context, login func(ctx context.Context) error) error {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	if s.Authenticated() {
		return nil
	}
	return login(ctx)
}

// SetToken records a non-cookie proof of authentication (API key accepted,
// etc.) for reuse by later calls.
func (s *Session) SetToken(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value != "" {
		s.tokens[name] = value
	}
}

// Token returns a previously stored token.
func (s *Session) Token(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[name]
}

// Prime seeds the jar from a raw "name=value; name2=value2" cookie string
// supplied in configuration. Validity of primed cookies is assumed without
// a network round trip; a stale cookie surfaces later as a failed fetch.
func (s *Session) Prime(rawCookies string) {
	var cookies []*http.Cookie
	for _, pair := range strings.Split(rawCookies, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	if len(cookies) > 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.jar.SetCookies(s.base, cookies)
	}
}

// Invalidate drops all stored proof of authentication, forcing a fresh
// login on the next EnsureAuthenticated.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err == nil {
		s.jar = jar
	}
	s.tokens = make(map[string]string)
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}
