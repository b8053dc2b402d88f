// Package filter applies per-provider admission policy to parsed rows and
// tags releases with advisory metadata (proper/repack).
package filter

import (
	"strings"

	"github.com/cehbz/torrentname"

	"snatchr/utils/scrape"
)

// Policy is the numeric and freeleech admission policy for one provider.
type Policy struct {
	MinSeeders    int
	MinLeechers   int
	FreeleechOnly bool
	ProperStrings []string
}

// Admit reports whether a parsed row satisfies the policy. Freeleech is
// re-validated locally even when the provider was asked to filter
// server-side; the remote service's filtering is never trusted silently.
func Admit(row scrape.Row, p Policy) bool {
	if row.Seeders < p.MinSeeders || row.Leechers < p.MinLeechers {
		return false
	}
	if p.FreeleechOnly && !row.FreeLeech {
		return false
	}
	return true
}

// Admitted returns the rows that pass the policy, preserving input order.
func Admitted(rows []scrape.Row, p Policy) []scrape.Row {
	kept := make([]scrape.Row, 0, len(rows))
	for _, row := range rows {
		if Admit(row, p) {
			kept = append(kept, row)
		}
	}
	return kept
}

// IsProper reports whether a release title marks a corrected re-release.
// Provider-specific proper strings are checked first; release-name parsing
// is the fallback so providers with no configured strings still get
// tagging. The result is advisory metadata, never an admission criterion.
func IsProper(title string, properStrings []string) bool {
	upper := strings.ToUpper(title)
	for _, marker := range properStrings {
		if marker != "" && strings.Contains(upper, strings.ToUpper(marker)) {
			return true
		}
	}
	parsed := torrentname.Parse(title)
	if parsed == nil {
		return false
	}
	return parsed.IsProper || parsed.IsRepack
}
