package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"snatchr/config"
	"snatchr/models"
	"snatchr/services/session"
	"snatchr/utils/scrape"
	"snatchr/utils/sizeutil"
)

// abnormal is a French private tracker. Search results come back as an
// HTML table whose size column is labeled either Size or Taille and uses
// French unit suffixes.
type abnormal struct {
	base     *url.URL
	username string
	password string
}

const abnormalURL = "https://abnormal.ws"

func NewAbnormal(cfg config.ProviderSettings, timeout time.Duration) (*Adapter, error) {
	base, err := url.Parse(firstNonEmpty(cfg.URL, abnormalURL))
	if err != nil {
		return nil, fmt.Errorf("abnormal: parsing base url: %w", err)
	}
	sess, err := session.New(base, nil)
	if err != nil {
		return nil, err
	}
	site := &abnormal{base: base, username: cfg.Username, password: cfg.Password}
	return NewAdapter(cfg, site, sess, timeout), nil
}

func (p *abnormal) Login(ctx context.Context, c *Client) error {
	form := url.Values{
		"username": {p.username},
		"password": {p.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.base.JoinPath("login.php").String(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.PostForm(req)
	if err != nil {
		return fmt.Errorf("abnormal: login request: %w", err)
	}
	// A logged-in landing page links to the torrent listing.
	if !bytes.Contains(body, []byte("torrents.php")) {
		return fmt.Errorf("abnormal: invalid username or password")
	}
	return nil
}

func (p *abnormal) SearchRequest(ctx context.Context, mode, term string) (*http.Request, error) {
	params := url.Values{
		"cat[]": {
			"TV|SD|VOSTFR", "TV|HD|VOSTFR", "TV|SD|VF", "TV|HD|VF",
			"TV|PACK|FR", "TV|PACK|VOSTFR", "TV|EMISSIONS", "ANIME",
		},
		"way":    {"DESC"},
		"search": {term},
	}
	if mode == models.ModeRSS {
		params.Set("order", "Time")
	} else {
		params.Set("order", "Seeders")
	}

	u := p.base.JoinPath("torrents.php")
	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (p *abnormal) Parse(body []byte, mode string) ([]scrape.Row, []*scrape.RowError, error) {
	return scrape.ParseTable(bytes.NewReader(body), scrape.TableSpec{
		Selector:      "table.torrent_table",
		TitleLabels:   []string{"release"},
		LinkLabels:    []string{"dl"},
		SizeLabels:    []string{"size", "taille"},
		SeederLabels:  []string{"s"},
		LeecherLabels: []string{"l"},
		LinkSelector:  "a.tooltip",
		SizeUnits:     sizeutil.UnitsFrench,
		BaseURL:       p.base,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
