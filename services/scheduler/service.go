// Package scheduler runs the periodic RSS sweep: every tick it polls the
// providers whose feed cache has expired and hands fresh results to a
// Snatcher.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"snatchr/models"
	"snatchr/services/provider"
	"snatchr/services/search"
)

// Snatcher receives the results of each sweep. What happens to them,
// matching against wanted episodes, download hand-off, is the caller's
// business.
type Snatcher interface {
	HandleResults(ctx context.Context, results []models.ReleaseResult)
}

// Service owns the polling loop.
type Service struct {
	adapters      []*provider.Adapter
	snatcher      Snatcher
	interval      time.Duration
	maxConcurrent int

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// lastPoll gates each provider by its MinCacheTime: polling a feed
	// more often than its cache refreshes only returns stale data. Own
	// mutex so a sweep never contends with Start/Stop.
	pollMu   sync.Mutex
	lastPoll map[string]time.Time
}

func NewService(adapters []*provider.Adapter, snatcher Snatcher, interval time.Duration, maxConcurrent int) *Service {
	if interval < time.Minute {
		interval = 15 * time.Minute
	}
	return &Service{
		adapters:      adapters,
		snatcher:      snatcher,
		interval:      interval,
		maxConcurrent: maxConcurrent,
		lastPoll:      make(map[string]time.Time),
	}
}

// Start begins the polling loop. The first sweep runs immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop()

	log.Println("[scheduler] RSS polling started")
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, up to the
// context's deadline.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] RSS polling stopped")
	case <-ctx.Done():
		log.Println("[scheduler] RSS polling stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep polls every provider whose cache window has passed.
func (s *Service) sweep() {
	due := s.dueProviders(time.Now())
	if len(due) == 0 {
		log.Println("[scheduler] no providers due for polling")
		return
	}

	searchers := make([]search.Searcher, len(due))
	for i, a := range due {
		searchers[i] = a
	}

	results, err := search.NewService(searchers, s.maxConcurrent).SearchAll(s.ctx, models.SearchStrings{
		models.ModeRSS: {""},
	})
	if err != nil {
		log.Printf("[scheduler] sweep finished with errors: %v", err)
	}

	if len(results) > 0 && s.snatcher != nil {
		s.snatcher.HandleResults(s.ctx, results)
	}
}

func (s *Service) dueProviders(now time.Time) []*provider.Adapter {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	var due []*provider.Adapter
	for _, a := range s.adapters {
		if last, ok := s.lastPoll[a.Name()]; ok && now.Sub(last) < a.MinCacheTime() {
			continue
		}
		s.lastPoll[a.Name()] = now
		due = append(due, a)
	}
	return due
}
