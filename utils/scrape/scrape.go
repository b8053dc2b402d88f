// Package scrape extracts raw candidate rows from the two response shapes
// providers return: HTML results tables and JSON documents. Rows are an
// intermediate wire-shape structure; admission policy and normalization
// happen downstream.
package scrape

import "fmt"

// Row is one parsed candidate prior to admission filtering. Title and
// DownloadURL are guaranteed non-empty for every Row a parser returns;
// SizeBytes is -1 when the source gave no parseable size.
type Row struct {
	Title       string
	DownloadURL string
	InfoHash    string
	SizeBytes   int64
	Seeders     int
	Leechers    int
	FreeLeech   bool
}

// RowError records a single skipped row. One malformed row never aborts a
// page; the parser reports what it dropped so callers can log or assert it.
type RowError struct {
	Index  int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d skipped: %s", e.Index, e.Reason)
}
