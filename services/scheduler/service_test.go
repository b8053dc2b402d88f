package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snatchr/config"
	"snatchr/models"
	"snatchr/services/provider"
)

func norbitsAdapter(t *testing.T, name, serverURL string, minCacheMinutes int) *provider.Adapter {
	t.Helper()
	a, err := provider.NewNorbits(config.ProviderSettings{
		Name:                name,
		URL:                 serverURL,
		Username:            "u",
		Passkey:             "pk",
		MinCacheTimeMinutes: minCacheMinutes,
	}, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestDueProvidersGatedByMinCacheTime(t *testing.T) {
	cached := norbitsAdapter(t, "cached", "https://unreachable.invalid", 30)
	eager := norbitsAdapter(t, "eager", "https://unreachable.invalid", 0)

	s := NewService([]*provider.Adapter{cached, eager}, nil, time.Hour, 2)

	now := time.Now()
	due := s.dueProviders(now)
	if len(due) != 2 {
		t.Fatalf("first sweep should poll everyone, got %d", len(due))
	}

	due = s.dueProviders(now.Add(time.Minute))
	if len(due) != 1 || due[0].Name() != "eager" {
		t.Fatalf("within the cache window only the zero-cache provider is due, got %d", len(due))
	}

	due = s.dueProviders(now.Add(31 * time.Minute))
	if len(due) != 2 {
		t.Fatalf("after the cache window everyone is due again, got %d", len(due))
	}
}

type captureSnatcher struct{ got chan []models.ReleaseResult }

func (c *captureSnatcher) HandleResults(ctx context.Context, results []models.ReleaseResult) {
	c.got <- results
}

func TestSweepHandsResultsToSnatcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api2.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"torrents": [
			{"id": 1, "name": "Show.S01E05.HDTV", "seeders": 9, "leechers": 1, "size": 1000}
		]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	snatcher := &captureSnatcher{got: make(chan []models.ReleaseResult, 1)}
	adapter := norbitsAdapter(t, "norbits", srv.URL, 0)

	s := NewService([]*provider.Adapter{adapter}, snatcher, time.Hour, 2)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case results := <-snatcher.got:
		if len(results) != 1 || results[0].Title != "Show.S01E05.HDTV" {
			t.Fatalf("unexpected results %+v", results)
		}
		if results[0].Provider != "norbits" {
			t.Fatalf("provider stamp missing: %+v", results[0])
		}
	case <-time.After(10 * time.Second):
		t.Fatal("sweep never delivered results")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s := NewService(nil, nil, time.Hour, 2)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Fatal(err)
	}
}
