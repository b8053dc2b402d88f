package scrape

import (
	"fmt"
	"testing"
)

func TestParseDocument(t *testing.T) {
	body := []byte(`{
		"total_results": 1,
		"results": [
			{"release_name": "Show.S01E01.HDTV", "download_url": "http://x/d/1", "seeders": 10, "leechers": 2, "size": 104857600}
		]
	}`)

	rows, skipped, err := ParseDocument(body, DocumentSpec{
		ListPath:    []string{"results"},
		TotalKey:    "total_results",
		TitleKey:    "release_name",
		LinkKey:     "download_url",
		SeedersKey:  "seeders",
		LeechersKey: "leechers",
		SizeKey:     "size",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skips, got %d", len(skipped))
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.Title != "Show.S01E01.HDTV" || row.DownloadURL != "http://x/d/1" {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Seeders != 10 || row.Leechers != 2 || row.SizeBytes != 104857600 {
		t.Fatalf("unexpected numbers %+v", row)
	}
}

func TestParseDocumentTolerant(t *testing.T) {
	tests := []struct {
		name string
		body string
		rows int
	}{
		{"zero total short-circuits", `{"total_results": 0, "results": "surprise"}`, 0},
		{"top level array", `[1,2,3]`, 0},
		{"not json", `<html>maintenance</html>`, 0},
		{"missing list", `{"total_results": 2}`, 0},
		{"string numbers", `{"total_results": "1", "results": [{"release_name": "A", "download_url": "http://x", "seeders": "5", "leechers": "1", "size": "1.5 GB"}]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _, err := ParseDocument([]byte(tt.body), DocumentSpec{
				ListPath:    []string{"results"},
				TotalKey:    "total_results",
				TitleKey:    "release_name",
				LinkKey:     "download_url",
				SeedersKey:  "seeders",
				LeechersKey: "leechers",
				SizeKey:     "size",
			})
			if err != nil {
				t.Fatal(err)
			}
			if len(rows) != tt.rows {
				t.Fatalf("expected %d rows, got %d", tt.rows, len(rows))
			}
		})
	}
}

func TestParseDocumentNestedPathAndLinkFunc(t *testing.T) {
	body := []byte(`{"data": {"torrents": [
		{"id": 42, "name": "Show.S03E01", "seeders": 4, "leechers": 0, "info_hash": "ABCDEF", "size": 1000},
		{"name": "no id so no link"}
	]}}`)

	rows, skipped, err := ParseDocument(body, DocumentSpec{
		ListPath:    []string{"data", "torrents"},
		TitleKey:    "name",
		SeedersKey:  "seeders",
		LeechersKey: "leechers",
		SizeKey:     "size",
		HashKey:     "info_hash",
		Link: func(item map[string]any) string {
			id, ok := item["id"].(float64)
			if !ok {
				return ""
			}
			return fmt.Sprintf("http://x/download?id=%.0f", id)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].DownloadURL != "http://x/download?id=42" {
		t.Fatalf("download url = %q", rows[0].DownloadURL)
	}
	if rows[0].InfoHash != "abcdef" {
		t.Fatalf("info hash should be lowercased, got %q", rows[0].InfoHash)
	}
	if len(skipped) != 1 || skipped[0].Index != 1 {
		t.Fatalf("expected the linkless item skipped, got %+v", skipped)
	}
}
