package scrape

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"snatchr/utils/sizeutil"
)

// TableSpec describes how to pull candidate rows out of one provider's
// results table. Columns are located by the header row's cell labels, not by
// position; sites reorder columns across redesigns and label lookup is the
// strategy that survives that.
type TableSpec struct {
	// Selector locates the results table, e.g. "table.torrent_table".
	Selector string

	// Candidate header labels for each field. The first label present in
	// the header row wins; lookup is case-insensitive.
	TitleLabels   []string
	LinkLabels    []string
	SizeLabels    []string
	SeederLabels  []string
	LeecherLabels []string

	// LinkSelector finds the download anchor inside the link cell.
	// Defaults to "a".
	LinkSelector string

	// SizeUnits is the unit table for size conversion. Nil means metric.
	SizeUnits []string

	// BaseURL resolves relative download hrefs. Required when the site
	// emits relative links.
	BaseURL *url.URL

	// FreeLeech, when set, reports whether a result row carries the
	// site's freeleech marker.
	FreeLeech func(row *goquery.Selection) bool
}

// ParseTable extracts rows from an HTML results table. A missing table or a
// table with only a header row means "no results", not an error. Malformed
// rows are skipped and reported in the returned RowError slice.
func ParseTable(r io.Reader, spec TableSpec) ([]Row, []*RowError, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, err
	}

	table := doc.Find(spec.Selector).First()
	if table.Length() == 0 {
		return nil, nil, nil
	}

	trs := table.Find("tr")
	if trs.Length() < 2 {
		return nil, nil, nil
	}

	labels := headerLabels(trs.First())

	linkSelector := spec.LinkSelector
	if linkSelector == "" {
		linkSelector = "a"
	}

	var rows []Row
	var skipped []*RowError

	trs.Slice(1, trs.Length()).Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < len(labels) {
			skipped = append(skipped, &RowError{Index: i, Reason: "fewer cells than header columns"})
			return
		}

		cell := func(candidates []string) (*goquery.Selection, bool) {
			idx, ok := labelIndex(labels, candidates)
			if !ok {
				return nil, false
			}
			return cells.Eq(idx), true
		}

		titleCell, ok := cell(spec.TitleLabels)
		if !ok {
			skipped = append(skipped, &RowError{Index: i, Reason: "no title column"})
			return
		}
		title := strings.TrimSpace(titleCell.Text())

		var link string
		if linkCell, ok := cell(spec.LinkLabels); ok {
			href, _ := linkCell.Find(linkSelector).First().Attr("href")
			link = resolveLink(spec.BaseURL, href)
		}

		if title == "" || link == "" {
			skipped = append(skipped, &RowError{Index: i, Reason: "missing title or download link"})
			return
		}

		row := Row{
			Title:       title,
			DownloadURL: link,
			SizeBytes:   sizeutil.Unknown,
		}

		if c, ok := cell(spec.SeederLabels); ok {
			row.Seeders = cellInt(c)
		}
		if c, ok := cell(spec.LeecherLabels); ok {
			row.Leechers = cellInt(c)
		}
		if c, ok := cell(spec.SizeLabels); ok {
			row.SizeBytes = sizeutil.Convert(strings.TrimSpace(c.Text()), spec.SizeUnits)
		}
		if spec.FreeLeech != nil {
			row.FreeLeech = spec.FreeLeech(tr)
		}

		rows = append(rows, row)
	})

	return rows, skipped, nil
}

// headerLabels maps the lowercased text of each header cell to its column
// index. Header cells may be th or td.
func headerLabels(header *goquery.Selection) map[string]int {
	labels := make(map[string]int)
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(cell.Text()))
		if _, seen := labels[label]; !seen {
			labels[label] = i
		}
	})
	return labels
}

func labelIndex(labels map[string]int, candidates []string) (int, bool) {
	for _, candidate := range candidates {
		if idx, ok := labels[strings.ToLower(candidate)]; ok {
			return idx, true
		}
	}
	return 0, false
}

func cellInt(cell *goquery.Selection) int {
	text := strings.ReplaceAll(strings.TrimSpace(cell.Text()), ",", "")
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// resolveLink makes href absolute against base. An absolute href passes
// through; a relative href without a base yields "".
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
