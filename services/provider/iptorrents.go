package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"snatchr/config"
	"snatchr/models"
	"snatchr/services/session"
	"snatchr/utils/scrape"
	"snatchr/utils/sizeutil"
)

// iptorrents scrapes a private tracker whose listing table has fixed
// column positions and class-tagged seeder/leecher cells instead of a
// labeled header row.
type iptorrents struct {
	base          *url.URL
	username      string
	password      string
	freeleechOnly bool
}

const (
	iptorrentsURL = "https://iptorrents.eu"

	// TV categories, preselected in the search query.
	iptorrentsCategories = "73=&60="
)

// Inline action buttons inside result rows confuse the row parser, so
// they are stripped before parsing.
var buttonRE = regexp.MustCompile(`(?is)<button.+?</button>`)

func NewIPTorrents(cfg config.ProviderSettings, timeout time.Duration) (*Adapter, error) {
	rawBase := firstNonEmpty(cfg.CustomURL, cfg.URL, iptorrentsURL)
	base, err := url.Parse(rawBase)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("iptorrents: invalid url %q", rawBase)
	}
	// Login cookies are named uid and pass; both must be present for the
	// session to count as authenticated.
	sess, err := session.New(base, []string{"uid", "pass"})
	if err != nil {
		return nil, err
	}
	site := &iptorrents{
		base:          base,
		username:      cfg.Username,
		password:      cfg.Password,
		freeleechOnly: cfg.FreeleechOnly,
	}
	return NewAdapter(cfg, site, sess, timeout), nil
}

// Login fetches the index page, which redirects to the login form, finds
// the form's action and submits credentials to it. The landing page text
// carries the failure markers.
func (p *iptorrents) Login(ctx context.Context, c *Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base.String(), nil)
	if err != nil {
		return err
	}
	body, ok := c.FetchText(req)
	if !ok {
		return fmt.Errorf("iptorrents: unable to reach provider")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("iptorrents: parsing index page: %w", err)
	}
	action, exists := doc.Find(`form[action*="login"]`).Attr("action")
	if !exists || action == "" {
		return fmt.Errorf("iptorrents: could not find the login form, try configured cookies instead")
	}
	actionURL, err := p.base.Parse(action)
	if err != nil {
		return fmt.Errorf("iptorrents: resolving login action: %w", err)
	}

	form := url.Values{
		"username": {p.username},
		"password": {p.password},
		"login":    {"submit"},
	}
	loginReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		actionURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	loginReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.PostForm(loginReq)
	if err != nil {
		return fmt.Errorf("iptorrents: login request: %w", err)
	}
	for _, marker := range []string{
		"Invalid username and password combination",
		"You tried too often",
		"Captcha verification failed.",
	} {
		if bytes.Contains(resp, []byte(marker)) {
			return fmt.Errorf("iptorrents: login rejected: %s", marker)
		}
	}
	return nil
}

func (p *iptorrents) SearchRequest(ctx context.Context, mode, term string) (*http.Request, error) {
	freeleech := ""
	if p.freeleechOnly {
		freeleech = "&free=on"
	}
	order := ""
	if mode != models.ModeRSS {
		order = ";o=seeders"
	}

	u := *p.base
	u.Path = "/t"
	u.RawQuery = fmt.Sprintf("%s%s&q=%s&qf=%s", iptorrentsCategories, freeleech, url.QueryEscape(term), order)
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (p *iptorrents) Parse(body []byte, mode string) ([]scrape.Row, []*scrape.RowError, error) {
	body = buttonRE.ReplaceAll(body, nil)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	if strings.Contains(doc.Text(), "No Torrents Found!") {
		return nil, nil, nil
	}

	trs := doc.Find("table#torrents tr")
	if trs.Length() < 2 {
		return nil, nil, nil
	}

	var rows []scrape.Row
	var rowErrs []*scrape.RowError
	trs.Slice(1, trs.Length()).Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 6 {
			rowErrs = append(rowErrs, &scrape.RowError{Index: i, Reason: "fewer cells than expected"})
			return
		}

		title := strings.TrimSpace(cells.Eq(1).Find("a").First().Text())
		href, _ := cells.Eq(3).Find("a").First().Attr("href")
		if title == "" || href == "" {
			rowErrs = append(rowErrs, &scrape.RowError{Index: i, Reason: "missing title or download link"})
			return
		}
		link, err := p.base.Parse(href)
		if err != nil {
			rowErrs = append(rowErrs, &scrape.RowError{Index: i, Reason: "unresolvable download link"})
			return
		}

		seeders := atoiLoose(tr.Find("td.ac.t_seeders").Text())
		leechers := atoiLoose(tr.Find("td.ac.t_leechers").Text())

		rows = append(rows, scrape.Row{
			Title:       title,
			DownloadURL: link.String(),
			SizeBytes:   sizeutil.Convert(cells.Eq(5).Text(), sizeutil.UnitsMetric),
			Seeders:     seeders,
			Leechers:    leechers,
			FreeLeech:   tr.Find("span.t_tag_free_leech").Length() > 0,
		})
	})
	return rows, rowErrs, nil
}

func atoiLoose(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	return n
}
