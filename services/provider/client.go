package provider

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"snatchr/services/session"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// Client wraps a cookie-carrying HTTP client with a per-provider rate
// limiter. All of a provider's requests, login included, go through it.
type Client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a client bound to the provider's session. Requests are
// limited to one per second per provider, with enough burst that a login
// followed by a search does not stall.
func NewClient(name string, sess *session.Session, timeout time.Duration) *Client {
	return &Client{
		name: name,
		http: &http.Client{
			Jar:     sess,
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 4),
	}
}

// Do performs the request after waiting for the rate limiter. Callers own
// the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return c.http.Do(req)
}

// FetchText performs the request and returns the body decoded to UTF-8
// based on the response charset. A transport error or a non-2xx status is
// logged and reported as an empty body, matching how a provider's search
// degrades to zero results rather than failing the whole sweep.
func (c *Client) FetchText(req *http.Request) ([]byte, bool) {
	resp, err := c.Do(req)
	if err != nil {
		log.Printf("[provider] %s: fetch %s failed: %v", c.name, req.URL, err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[provider] %s: fetch %s returned status %d", c.name, req.URL, resp.StatusCode)
		return nil, false
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("[provider] %s: charset detection for %s failed: %v", c.name, req.URL, err)
		return nil, false
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		log.Printf("[provider] %s: reading %s failed: %v", c.name, req.URL, err)
		return nil, false
	}
	return body, true
}

// PostForm submits a form and returns the final body. Redirects are
// followed by the underlying client, so the body reflects the landing
// page, which is where login failure markers live.
func (c *Client) PostForm(req *http.Request) ([]byte, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading login response: %w", err)
	}
	return body, nil
}
