package models

// Search modes understood by provider adapters. RSS is the passive poll mode
// where remote results are time-ordered; the active modes ask the remote to
// order by seeders.
const (
	ModeRSS     = "RSS"
	ModeEpisode = "Episode"
	ModeSeason  = "Season"
)

// SearchStrings maps a search mode to the search terms issued for it.
type SearchStrings map[string][]string

// SizeUnknown is the sentinel for a release whose size could not be parsed.
const SizeUnknown int64 = -1

// ReleaseResult is a normalized candidate release produced by a provider
// adapter. Title and DownloadURL are always non-empty; rows missing either
// are dropped during parsing and never reach this type. Provider is stamped
// by the aggregator at collection time.
type ReleaseResult struct {
	Title       string `json:"title"`
	DownloadURL string `json:"downloadUrl"`
	SizeBytes   int64  `json:"sizeBytes"`
	Seeders     int    `json:"seeders"`
	Leechers    int    `json:"leechers"`
	InfoHash    string `json:"infoHash,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Proper      bool   `json:"proper,omitempty"`
	FreeLeech   bool   `json:"freeLeech,omitempty"`
}
