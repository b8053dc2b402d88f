package scrape

import (
	"encoding/json"
	"strconv"
	"strings"

	"snatchr/utils/sizeutil"
)

// DocumentSpec describes how to pull candidate rows out of one provider's
// JSON response. Field lookups tolerate missing keys and string-typed
// numbers; a row fails only when it has no title or no download link.
type DocumentSpec struct {
	// ListPath is the key path from the document root to the item list.
	ListPath []string

	// TotalKey, when set, names a result-count field checked before the
	// list; zero means "no results" without walking ListPath.
	TotalKey string

	TitleKey    string
	LinkKey     string
	SeedersKey  string
	LeechersKey string
	SizeKey     string
	HashKey     string

	// Link, when set, builds the download URL from the whole item instead
	// of reading LinkKey. Used by API sites that derive download links
	// from an item id plus credentials.
	Link func(item map[string]any) string
}

// ParseDocument extracts rows from a JSON body. A body whose top level is
// not an object, or that decodes to nothing, yields zero rows and no error.
func ParseDocument(body []byte, spec DocumentSpec) ([]Row, []*RowError, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, nil, nil
	}

	doc, ok := root.(map[string]any)
	if !ok {
		return nil, nil, nil
	}

	if spec.TotalKey != "" && coerceInt(doc[spec.TotalKey]) == 0 {
		return nil, nil, nil
	}

	items, ok := walkList(doc, spec.ListPath)
	if !ok {
		return nil, nil, nil
	}

	var rows []Row
	var skipped []*RowError

	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			skipped = append(skipped, &RowError{Index: i, Reason: "item is not an object"})
			continue
		}

		title := strings.TrimSpace(coerceString(item[spec.TitleKey]))

		var link string
		if spec.Link != nil {
			link = spec.Link(item)
		} else {
			link = strings.TrimSpace(coerceString(item[spec.LinkKey]))
		}

		if title == "" || link == "" {
			skipped = append(skipped, &RowError{Index: i, Reason: "missing title or download link"})
			continue
		}

		rows = append(rows, Row{
			Title:       title,
			DownloadURL: link,
			InfoHash:    strings.ToLower(coerceString(item[spec.HashKey])),
			SizeBytes:   coerceSize(item[spec.SizeKey]),
			Seeders:     coerceInt(item[spec.SeedersKey]),
			Leechers:    coerceInt(item[spec.LeechersKey]),
		})
	}

	return rows, skipped, nil
}

func walkList(doc map[string]any, path []string) ([]any, bool) {
	var node any = doc
	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node = obj[key]
	}
	list, ok := node.([]any)
	return list, ok
}

// coerceInt reads a count field that may arrive as a JSON number or a
// numeric string. Anything else, negatives included, is 0.
func coerceInt(v any) int {
	n := 0
	switch value := v.(type) {
	case float64:
		n = int(value)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0
		}
		n = parsed
	}
	if n < 0 {
		return 0
	}
	return n
}

// coerceSize reads a byte count that may arrive as a number, a numeric
// string, or a textual size ("1.5 GB"). Unparseable sizes are the -1
// sentinel.
func coerceSize(v any) int64 {
	switch value := v.(type) {
	case float64:
		return int64(value)
	case string:
		return sizeutil.Convert(value, nil)
	default:
		return sizeutil.Unknown
	}
}

func coerceString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatInt(int64(value), 10)
	default:
		return ""
	}
}
