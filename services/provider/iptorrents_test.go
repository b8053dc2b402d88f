package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snatchr/config"
	"snatchr/models"
)

const iptorrentsListing = `
<html><body>
<table id="torrents">
  <tr><th>Cat</th><th>Name</th><th>Com</th><th>DL</th><th>Snatch</th><th>Size</th></tr>
  <tr>
    <td>TV</td>
    <td><a href="/details.php?id=1">Show.S01E01.720p.HDTV</a><span class="t_tag_free_leech">FL</span><button onclick="x()">bookmark</button></td>
    <td>0</td>
    <td><a href="/download.php/1/show.torrent">dl</a></td>
    <td>12</td>
    <td>1.1 GB</td>
    <td class="ac t_seeders">44</td>
    <td class="ac t_leechers">7</td>
  </tr>
  <tr>
    <td>TV</td>
    <td><a href="/details.php?id=2">Show.S01E02.720p.HDTV</a></td>
    <td>0</td>
    <td><a href="/download.php/2/show2.torrent">dl</a></td>
    <td>3</td>
    <td>900 MB</td>
    <td class="ac t_seeders">8</td>
    <td class="ac t_leechers">1</td>
  </tr>
</table>
</body></html>`

func TestIPTorrentsCookieBypass(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// The index only matters to the login flow, which must not run.
		logins++
		w.Write([]byte(`<form action="/take_login.php"></form>`))
	})
	mux.HandleFunc("/t", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "73=&60=") {
			t.Errorf("missing category params in %q", r.URL.RawQuery)
		}
		if !strings.HasSuffix(r.URL.RawQuery, ";o=seeders") {
			t.Errorf("active search should order by seeders, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(iptorrentsListing))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, err := NewIPTorrents(config.ProviderSettings{
		Name:    "iptorrents",
		URL:     srv.URL,
		Cookies: "uid=1234; pass=abcd",
	}, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	results, err := a.Search(context.Background(), models.SearchStrings{models.ModeEpisode: {"Show S01"}})
	if err != nil {
		t.Fatal(err)
	}

	if logins != 0 {
		t.Fatalf("configured cookies must bypass login, saw %d index fetches", logins)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "Show.S01E01.720p.HDTV" || results[0].Seeders != 44 {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if !results[0].FreeLeech {
		t.Fatal("freeleech tag not detected")
	}
	if results[1].FreeLeech {
		t.Fatal("plain row tagged freeleech")
	}
	if results[0].DownloadURL != srv.URL+"/download.php/1/show.torrent" {
		t.Fatalf("download url = %q", results[0].DownloadURL)
	}
}

func TestIPTorrentsLoginFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><form method="post" action="/take_login.php"><input name="username"></form></html>`))
	})
	mux.HandleFunc("/take_login.php", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		if r.PostForm.Get("username") != "u" || r.PostForm.Get("login") != "submit" {
			t.Errorf("unexpected login form %v", r.PostForm)
		}
		http.SetCookie(w, &http.Cookie{Name: "uid", Value: "1"})
		http.SetCookie(w, &http.Cookie{Name: "pass", Value: "x"})
		w.Write([]byte("welcome"))
	})
	mux.HandleFunc("/t", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>No Torrents Found!</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, err := NewIPTorrents(config.ProviderSettings{Name: "iptorrents", URL: srv.URL, Username: "u", Password: "p"}, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	results, err := a.Search(context.Background(), models.SearchStrings{models.ModeEpisode: {"anything"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("empty listing should yield no results, got %d", len(results))
	}
}

func TestIPTorrentsLoginMarkers(t *testing.T) {
	for _, marker := range []string{
		"Invalid username and password combination",
		"You tried too often",
		"Captcha verification failed.",
	} {
		t.Run(marker, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<form action="/take_login.php"></form>`))
			})
			mux.HandleFunc("/take_login.php", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>" + marker + "</html>"))
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			a, err := NewIPTorrents(config.ProviderSettings{Name: "iptorrents", URL: srv.URL, Username: "u", Password: "p"}, 5*time.Second)
			if err != nil {
				t.Fatal(err)
			}
			results, err := a.Search(context.Background(), models.SearchStrings{models.ModeEpisode: {"x"}})
			if err != nil {
				t.Fatalf("login rejection must degrade silently, got %v", err)
			}
			if results != nil {
				t.Fatalf("expected no results, got %d", len(results))
			}
		})
	}
}

func TestIPTorrentsRejectsBadCustomURL(t *testing.T) {
	_, err := NewIPTorrents(config.ProviderSettings{Name: "iptorrents", CustomURL: "not a url"}, 5*time.Second)
	if err == nil {
		t.Fatal("expected an error for an invalid custom url")
	}
}
