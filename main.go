package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/natefinch/lumberjack.v2"

	"snatchr/config"
	"snatchr/models"
	"snatchr/services/provider"
	"snatchr/services/scheduler"
	"snatchr/services/search"
)

func main() {
	configPath := flag.String("config", "", "path to settings.json (default $SNATCHR_CONFIG or cache/settings.json)")
	episodeTerm := flag.String("search", "", "run one episode search for the given term and exit")
	rssOnce := flag.Bool("rss", false, "run one RSS sweep and exit")
	poll := flag.Bool("poll", false, "run the RSS polling daemon")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("SNATCHR_CONFIG")
	}
	if path == "" {
		path = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(path)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// File logging with rotation, alongside stderr so one-shot runs stay
	// readable.
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	adapters := provider.BuildFromConfig(&settings)
	if len(adapters) == 0 {
		log.Fatal("no providers enabled, edit " + path)
	}

	switch {
	case *episodeTerm != "":
		runOnce(adapters, settings, models.SearchStrings{models.ModeEpisode: {*episodeTerm}})
	case *rssOnce:
		runOnce(adapters, settings, models.SearchStrings{models.ModeRSS: {""}})
	case *poll:
		runDaemon(adapters, settings)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runOnce(adapters []*provider.Adapter, settings config.Settings, searchStrings models.SearchStrings) {
	searchers := make([]search.Searcher, len(adapters))
	for i, a := range adapters {
		searchers[i] = a
	}
	svc := search.NewService(searchers, settings.Search.MaxConcurrentProviders)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := svc.SearchAll(ctx, searchStrings)
	if err != nil {
		log.Printf("search finished with errors: %v", err)
	}
	printResults(results)
}

func printResults(results []models.ReleaseResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tTITLE\tSIZE\tS\tL")
	for _, r := range results {
		size := "?"
		if r.SizeBytes >= 0 {
			size = humanize.IBytes(uint64(r.SizeBytes))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", r.Provider, r.Title, size, r.Seeders, r.Leechers)
	}
	w.Flush()
	fmt.Printf("%d results\n", len(results))
}

// logSnatcher is the daemon's result sink. A real deployment would hand
// results to a download client here.
type logSnatcher struct{}

func (logSnatcher) HandleResults(ctx context.Context, results []models.ReleaseResult) {
	for _, r := range results {
		log.Printf("[snatch] %s: %s (seeders %d)", r.Provider, r.Title, r.Seeders)
	}
}

func runDaemon(adapters []*provider.Adapter, settings config.Settings) {
	interval := time.Duration(settings.Search.PollIntervalSeconds) * time.Second
	svc := scheduler.NewService(adapters, logSnatcher{}, interval, settings.Search.MaxConcurrentProviders)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	log.Println("snatchr polling, Ctrl-C to stop")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
