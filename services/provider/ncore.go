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
	"snatchr/services/session"
	"snatchr/utils/scrape"
)

// ncore is a Hungarian tracker with a JSON search API behind a classic
// form login.
type ncore struct {
	base     *url.URL
	username string
	password string
}

const ncoreURL = "https://ncore.cc"

var ncoreCategories = strings.Join([]string{
	"xvidser_hun", "xvidser",
	"dvdser_hun", "dvdser",
	"hdser_hun", "hdser",
}, ",")

func NewNcore(cfg config.ProviderSettings, timeout time.Duration) (*Adapter, error) {
	base, err := url.Parse(firstNonEmpty(cfg.URL, ncoreURL))
	if err != nil {
		return nil, fmt.Errorf("ncore: parsing base url: %w", err)
	}
	sess, err := session.New(base, nil)
	if err != nil {
		return nil, err
	}
	site := &ncore{base: base, username: cfg.Username, password: cfg.Password}
	return NewAdapter(cfg, site, sess, timeout), nil
}

func (p *ncore) Login(ctx context.Context, c *Client) error {
	form := url.Values{
		"nev":       {p.username},
		"pass":      {p.password},
		"submitted": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.base.JoinPath("login.php").String(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.PostForm(req)
	if err != nil {
		return fmt.Errorf("ncore: login request: %w", err)
	}
	// The login page re-renders with a warning icon on bad credentials.
	if bytes.Contains(body, []byte("images/warning.png")) {
		return fmt.Errorf("ncore: invalid username or password")
	}
	return nil
}

func (p *ncore) SearchRequest(ctx context.Context, mode, term string) (*http.Request, error) {
	params := url.Values{
		"nyit_sorozat_resz":  {"true"},
		"kivalasztott_tipus": {ncoreCategories},
		"mire":               {term},
		"miben":              {"name"},
		"tipus":              {"kivalasztottak_kozott"},
		"submit.x":           {"0"},
		"submit.y":           {"0"},
		"submit":             {"Ok"},
		"tags":               {""},
		"searchedfrompotato": {"true"},
		"jsons":              {"true"},
	}
	u := p.base.JoinPath("torrents.php")
	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (p *ncore) Parse(body []byte, mode string) ([]scrape.Row, []*scrape.RowError, error) {
	return scrape.ParseDocument(body, scrape.DocumentSpec{
		ListPath:    []string{"results"},
		TotalKey:    "total_results",
		TitleKey:    "release_name",
		LinkKey:     "download_url",
		SeedersKey:  "seeders",
		LeechersKey: "leechers",
		SizeKey:     "size",
	})
}
