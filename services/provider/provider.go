// Package provider turns site-specific torrent trackers into a uniform
// search surface. Each concrete site implements the small Site interface;
// the Adapter wraps it with the shared machinery every tracker needs:
// session handling, rate-limited fetching, row admission and ordering.
package provider

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"snatchr/config"
	"snatchr/models"
	"snatchr/services/session"
	"snatchr/utils/filter"
	"snatchr/utils/queryutil"
	"snatchr/utils/scrape"
)

// Site is what a concrete tracker implements. Everything else lives in the
// Adapter.
type Site interface {
	// Login authenticates against the tracker using the wrapped client,
	// leaving proof (cookies or tokens) in the session's store.
	Login(ctx context.Context, c *Client) error

	// SearchRequest builds the request for one search term in one mode.
	// The term is already normalized.
	SearchRequest(ctx context.Context, mode, term string) (*http.Request, error)

	// Parse extracts candidate rows from a response body. Rows it cannot
	// represent are reported as RowErrors, not dropped silently.
	Parse(body []byte, mode string) ([]scrape.Row, []*scrape.RowError, error)
}

// Adapter runs a Site through the shared search pipeline.
type Adapter struct {
	name    string
	site    Site
	sess    *session.Session
	client  *Client
	policy  filter.Policy
	propers []string

	minCacheTime time.Duration
}

// NewAdapter wires a site to its session and client. Most callers go
// through BuildFromConfig instead.
func NewAdapter(cfg config.ProviderSettings, site Site, sess *session.Session, timeout time.Duration) *Adapter {
	a := &Adapter{
		name:   cfg.Name,
		site:   site,
		sess:   sess,
		client: NewClient(cfg.Name, sess, timeout),
		policy: filter.Policy{
			MinSeeders:    cfg.MinSeeders,
			MinLeechers:   cfg.MinLeechers,
			FreeleechOnly: cfg.FreeleechOnly,
		},
		propers:      cfg.ProperStrings,
		minCacheTime: time.Duration(cfg.MinCacheTimeMinutes) * time.Minute,
	}
	if cfg.Cookies != "" {
		sess.Prime(cfg.Cookies)
	}
	return a
}

func (a *Adapter) Name() string { return a.name }

// MinCacheTime is the shortest interval at which polling this provider's
// feed yields new data.
func (a *Adapter) MinCacheTime() time.Duration { return a.minCacheTime }

// Search runs every term of every mode against the tracker and returns the
// admitted results. Results are grouped by mode, RSS first, and sorted
// within each non-RSS mode by seeders descending; ties keep the order the
// tracker returned them in.
//
// A missing-credentials condition is the only error surfaced. Transport
// and parse failures are logged and contribute nothing.
func (a *Adapter) Search(ctx context.Context, searchStrings models.SearchStrings) ([]models.ReleaseResult, error) {
	if err := a.sess.EnsureAuthenticated(ctx, func(ctx context.Context) error {
		return a.site.Login(ctx, a.client)
	}); err != nil {
		var credErr *CredentialsError
		if errors.As(err, &credErr) {
			return nil, err
		}
		log.Printf("[provider] %s: login failed: %v", a.name, err)
		return nil, nil
	}

	var results []models.ReleaseResult
	for _, mode := range orderedModes(searchStrings) {
		var modeResults []models.ReleaseResult
		for _, term := range searchStrings[mode] {
			if mode != models.ModeRSS {
				term = queryutil.Normalize(term)
				log.Printf("[provider] %s: search string: %s", a.name, term)
			}
			modeResults = append(modeResults, a.searchOne(ctx, mode, term)...)
		}
		if mode != models.ModeRSS {
			sort.SliceStable(modeResults, func(i, j int) bool {
				return modeResults[i].Seeders > modeResults[j].Seeders
			})
		}
		results = append(results, modeResults...)
	}
	return results, nil
}

func (a *Adapter) searchOne(ctx context.Context, mode, term string) []models.ReleaseResult {
	req, err := a.site.SearchRequest(ctx, mode, term)
	if err != nil {
		log.Printf("[provider] %s: building search request: %v", a.name, err)
		return nil
	}

	body, ok := a.client.FetchText(req)
	if !ok || len(body) == 0 {
		return nil
	}

	rows, rowErrs, err := a.site.Parse(body, mode)
	if err != nil {
		log.Printf("[provider] %s: parsing results: %v", a.name, err)
		return nil
	}
	for _, re := range rowErrs {
		log.Printf("[provider] %s: skipped row: %v", a.name, re)
	}

	var out []models.ReleaseResult
	for _, row := range rows {
		if !filter.Admit(row, a.policy) {
			log.Printf("[provider] %s: discarding %q (seeders %d, leechers %d)",
				a.name, row.Title, row.Seeders, row.Leechers)
			continue
		}
		out = append(out, models.ReleaseResult{
			Title:       row.Title,
			DownloadURL: row.DownloadURL,
			SizeBytes:   row.SizeBytes,
			Seeders:     row.Seeders,
			Leechers:    row.Leechers,
			InfoHash:    row.InfoHash,
			FreeLeech:   row.FreeLeech,
			Proper:      filter.IsProper(row.Title, a.propers),
		})
		log.Printf("[provider] %s: found %s (seeders %d, leechers %d)",
			a.name, row.Title, row.Seeders, row.Leechers)
	}
	return out
}

// orderedModes returns the modes of a search in a stable order: RSS first,
// then the remaining modes sorted by name.
func orderedModes(s models.SearchStrings) []string {
	modes := make([]string, 0, len(s))
	if _, ok := s[models.ModeRSS]; ok {
		modes = append(modes, models.ModeRSS)
	}
	var rest []string
	for mode := range s {
		if mode != models.ModeRSS {
			rest = append(rest, mode)
		}
	}
	sort.Strings(rest)
	return append(modes, rest...)
}
