package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"snatchr/config"
	"snatchr/services/session"
	"snatchr/utils/scrape"
)

// norbits talks to a JSON API authenticated by username and passkey sent
// in every request body; there is no login round trip.
type norbits struct {
	base     *url.URL
	name     string
	username string
	passkey  string
	sess     *session.Session
}

const norbitsURL = "https://norbits.net"

func NewNorbits(cfg config.ProviderSettings, timeout time.Duration) (*Adapter, error) {
	base, err := url.Parse(firstNonEmpty(cfg.URL, norbitsURL))
	if err != nil {
		return nil, fmt.Errorf("norbits: parsing base url: %w", err)
	}
	sess, err := session.New(base, nil)
	if err != nil {
		return nil, err
	}
	site := &norbits{
		base:     base,
		name:     cfg.Name,
		username: cfg.Username,
		passkey:  cfg.Passkey,
		sess:     sess,
	}
	return NewAdapter(cfg, site, sess, timeout), nil
}

// Login only verifies that credentials are configured; the passkey is
// recorded as the session's proof of authentication so the check runs
// once per process.
func (p *norbits) Login(ctx context.Context, c *Client) error {
	if p.username == "" || p.passkey == "" {
		return &CredentialsError{Provider: p.name, Missing: "username or passkey"}
	}
	p.sess.SetToken("passkey", p.passkey)
	return nil
}

func (p *norbits) SearchRequest(ctx context.Context, mode, term string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]string{
		"username": p.username,
		"passkey":  p.passkey,
		"category": "2",
		"search":   term,
	})
	if err != nil {
		return nil, err
	}

	u := p.base.JoinPath("api2.php")
	u.RawQuery = "action=torrents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (p *norbits) Parse(body []byte, mode string) ([]scrape.Row, []*scrape.RowError, error) {
	var envelope struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Status == 3 {
		return nil, nil, fmt.Errorf("norbits: rejected credentials: %s", envelope.Message)
	}

	return scrape.ParseDocument(body, scrape.DocumentSpec{
		ListPath:    []string{"data", "torrents"},
		TitleKey:    "name",
		SeedersKey:  "seeders",
		LeechersKey: "leechers",
		SizeKey:     "size",
		HashKey:     "info_hash",
		Link: func(item map[string]any) string {
			id, _ := item["id"].(string)
			if id == "" {
				if f, ok := item["id"].(float64); ok {
					id = fmt.Sprintf("%.0f", f)
				}
			}
			if id == "" {
				return ""
			}
			u := p.base.JoinPath("download.php")
			u.RawQuery = url.Values{"id": {id}, "passkey": {p.passkey}}.Encode()
			return u.String()
		},
	})
}
